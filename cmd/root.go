package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/tagwatch/internal/actions"
	"github.com/nicholas-fedor/tagwatch/internal/flags"
	"github.com/nicholas-fedor/tagwatch/internal/logging"
	"github.com/nicholas-fedor/tagwatch/internal/meta"
	"github.com/nicholas-fedor/tagwatch/internal/scheduling"
	pkgApi "github.com/nicholas-fedor/tagwatch/pkg/api"
	historyAPI "github.com/nicholas-fedor/tagwatch/pkg/api/history"
	metricsAPI "github.com/nicholas-fedor/tagwatch/pkg/api/metrics"
	"github.com/nicholas-fedor/tagwatch/pkg/api/status"
	"github.com/nicholas-fedor/tagwatch/pkg/api/update"
	"github.com/nicholas-fedor/tagwatch/pkg/compose"
	"github.com/nicholas-fedor/tagwatch/pkg/container"
	"github.com/nicholas-fedor/tagwatch/pkg/history"
	"github.com/nicholas-fedor/tagwatch/pkg/metrics"
	"github.com/nicholas-fedor/tagwatch/pkg/registry"
	"github.com/nicholas-fedor/tagwatch/pkg/registry/auth"
	"github.com/nicholas-fedor/tagwatch/pkg/registry/ecr"
	"github.com/nicholas-fedor/tagwatch/pkg/registry/helpers"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// errStartAPI is returned when the HTTP API cannot be started.
var errStartAPI = errors.New("failed to start HTTP API")

// config holds the parsed configuration, populated in preRun.
var config flags.Config

// rootCmd is the tagwatch command.
var rootCmd = NewRootCommand()

// agent bundles the long-lived components of one tagwatch instance.
type agent struct {
	client   container.Client
	driver   *actions.Driver
	deployed *types.DeployedVersion
	store    *history.Store
	metrics  *metrics.Metrics
}

// NewRootCommand creates the root command for the tagwatch CLI.
//
// Returns:
//   - *cobra.Command: Root command, ready for flag registration.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tagwatch",
		Short: "Keeps a compose service on the newest release tag of a registry repository",
		Long: "\nTagwatch polls a container registry repository for its most recently published release tag" +
			"\nand restarts one compose service under it whenever the tag changes.",
		Run:    run,
		PreRun: preRun,
		Args:   cobra.NoArgs,
	}
}

func init() {
	flags.SetDefaults()
	flags.RegisterRegistryFlags(rootCmd)
	flags.RegisterDockerFlags(rootCmd)
	flags.RegisterSystemFlags(rootCmd)
	flags.RegisterAPIFlags(rootCmd)
}

// Execute runs the root command, terminating the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("Failed to execute root command")
	}
}

// preRun processes flags, configures logging and reads the configuration.
//
// Parameters:
//   - cmd: Command being executed.
//   - _: Unused positional arguments.
func preRun(cmd *cobra.Command, _ []string) {
	flagsSet := cmd.PersistentFlags()

	if err := flags.ProcessFlagAliases(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Invalid flag combination")
	}

	if err := flags.SetupLogging(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logging")
	}

	if err := flags.GetSecretsFromFiles(cmd); err != nil {
		logrus.WithError(err).Fatal("Failed to read secrets")
	}

	if err := flags.EnvConfig(cmd); err != nil {
		logrus.WithError(err).Fatal("Failed to configure Docker environment")
	}

	var err error

	config, err = flags.ReadConfig(flagsSet)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	logrus.WithFields(logrus.Fields{
		"repository": config.Repository,
		"service":    config.Service,
		"schedule":   config.Schedule,
	}).Debug("Loaded configuration")
}

// run executes tagwatch and exits with a non-zero status on failure.
func run(c *cobra.Command, _ []string) {
	if exitCode := runMain(c.Context(), config); exitCode != 0 {
		logrus.WithField("exit_code", exitCode).Debug("Exiting with non-zero status")
		os.Exit(exitCode)
	}
}

// runMain builds the agent and runs it in the configured mode.
//
// Parameters:
//   - ctx: Root context.
//   - cfg: Parsed configuration.
//
// Returns:
//   - int: Exit code, 0 on success.
func runMain(ctx context.Context, cfg flags.Config) int {
	if err := actions.CheckForSanity(actions.SanityOptions{
		ComposeFile: cfg.ComposeFile,
		ComposeDir:  cfg.ComposeDir,
		Service:     cfg.Service,
	}); err != nil {
		logrus.WithError(err).Error("Sanity check failed")

		return 1
	}

	lockPath := cfg.LockFile
	if lockPath == "" {
		lockPath = actions.DefaultLockPath(cfg.ComposeProject, cfg.Service)
	}

	instance, err := actions.AcquireInstanceLock(lockPath)
	if err != nil {
		logrus.WithError(err).Error("Multiple tagwatch instances detected")

		return 1
	}

	defer func() {
		if err := instance.Release(); err != nil {
			logrus.WithError(err).Warn("Failed to release instance lock")
		}
	}()

	if cfg.RunOnce && cfg.UpdateOnStart {
		logrus.Warn(
			"--update-on-start is ignored when --run-once is specified; deferring to --run-once behavior",
		)
	}

	a, err := newAgent(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize tagwatch")

		return 1
	}

	defer a.close()

	if cfg.RunOnce {
		logging.WriteStartupMessage(cfg, time.Time{}, a.client, a.deployed, meta.Version)

		if _, err := scheduling.RunOnce(ctx, a.driver.Cycle, a.metrics); err != nil {
			return 1
		}

		return 0
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	updateLock := scheduling.NewLock()

	if cfg.APIEnabled() {
		if err := setupAndStartAPI(ctx, cfg, a, updateLock); err != nil {
			return 1
		}
	}

	if cfg.APIUpdate && !cfg.APIPeriodicPolls {
		return 0
	}

	err = scheduling.RunOnSchedule(ctx, scheduling.Options{
		Schedule:      cfg.Schedule,
		UpdateOnStart: cfg.UpdateOnStart,
		Lock:          updateLock,
		Metrics:       a.metrics,
		Startup: func(nextRun time.Time) {
			logging.WriteStartupMessage(cfg, nextRun, a.client, a.deployed, meta.Version)
		},
	}, a.driver.Cycle)
	if err != nil {
		logrus.WithError(err).Error("Scheduler failed")

		return 1
	}

	return 0
}

// newAgent wires the registry, runtime, restarter and driver together.
//
// Parameters:
//   - ctx: Context for client setup and the initial version lookup.
//   - cfg: Parsed configuration.
//
// Returns:
//   - *agent: Ready agent.
//   - error: Non-nil if any component cannot be created.
func newAgent(ctx context.Context, cfg flags.Config) (*agent, error) {
	pattern, err := cfg.Pattern()
	if err != nil {
		return nil, err
	}

	host, err := registryHost(cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := ecr.NewFromConfig(ctx, cfg.Region, cfg.RegistryID)
	if err != nil {
		return nil, fmt.Errorf("registry client: %w", err)
	}

	resolver, err := registry.NewResolver(catalog, registry.Options{
		Repository: cfg.Repository,
		Pattern:    pattern,
		MaxResults: cfg.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	client, err := container.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}

	runtime := container.NewRuntime(client, auth.NewProvider(catalog), container.RuntimeOptions{
		Host:       host,
		Repository: cfg.Repository,
		LocalImage: cfg.LocalImage,
	})

	restarter := compose.NewRestarter(compose.Options{
		Command: cfg.ComposeCommand,
		File:    cfg.ComposeFile,
		Project: cfg.ComposeProject,
		Dir:     cfg.ComposeDir,
		Service: cfg.Service,
		TagEnv:  cfg.TagEnv,
	})

	lookupCtx, cancel := context.WithTimeout(ctx, cfg.RegistryTimeout)
	deployed := actions.InitialVersion(lookupCtx, runtime, pattern, cfg.ComposeProject, cfg.Service)

	cancel()

	a := &agent{
		client:   client,
		deployed: deployed,
		metrics:  metrics.Default(),
	}

	deps := actions.Dependencies{
		Resolver:  resolver,
		Puller:    runtime,
		Restarter: restarter,
	}

	if cfg.HistoryDB != "" {
		a.store, err = history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}

		deps.Recorder = a.store
	}

	a.driver, err = actions.NewDriver(deps, deployed, actions.Timeouts{
		Registry: cfg.RegistryTimeout,
		Pull:     cfg.PullTimeout,
		Restart:  cfg.RestartTimeout,
	})
	if err != nil {
		a.close()

		return nil, fmt.Errorf("driver: %w", err)
	}

	return a, nil
}

// close releases the history store, if any.
func (a *agent) close() {
	if a.store == nil {
		return
	}

	if err := a.store.Close(); err != nil {
		logrus.WithError(err).Warn("Failed to close history store")
	}
}

// cycle runs one cycle outside the scheduler and registers its metric.
func (a *agent) cycle(ctx context.Context) types.CycleReport {
	report := a.driver.Cycle(ctx)
	a.metrics.RegisterCycle(metrics.NewMetric(report, actions.FailureKind(report.Err)))

	return report
}

// registryHost returns the configured registry host or the ECR host of the registry id.
func registryHost(cfg flags.Config) (string, error) {
	if cfg.RegistryHost != "" {
		return cfg.RegistryHost, nil
	}

	host, err := helpers.ECRHost(cfg.RegistryID, cfg.Region)
	if err != nil {
		return "", fmt.Errorf("registry host: %w", err)
	}

	return host, nil
}

// setupAndStartAPI registers the enabled endpoints and starts the HTTP API.
//
// The server blocks when the update endpoint replaces periodic polling.
//
// Parameters:
//   - ctx: Context controlling the server's lifetime.
//   - cfg: Parsed configuration.
//   - a: Agent serving the endpoints.
//   - updateLock: Lock shared with the scheduler.
//
// Returns:
//   - error: Non-nil if the server fails to start.
func setupAndStartAPI(ctx context.Context, cfg flags.Config, a *agent, updateLock chan bool) error {
	httpAPI := pkgApi.New(cfg.APIToken, cfg.APIAddr())
	blocking := cfg.APIUpdate && !cfg.APIPeriodicPolls

	logrus.Info("HTTP API is enabled")

	if cfg.APIUpdate {
		updateHandler := update.New(a.cycle, updateLock)
		httpAPI.RegisterFunc(updateHandler.Path, updateHandler.Handle)

		if blocking {
			logging.WriteStartupMessage(cfg, time.Time{}, a.client, a.deployed, meta.Version)
		}
	}

	if cfg.APIMetrics {
		metricsHandler := metricsAPI.New()
		httpAPI.RegisterHandler(metricsHandler.Path, metricsHandler.Handle)
	}

	statusHandler := status.New(a.driver)
	httpAPI.RegisterHandler(statusHandler.Path, statusHandler)

	if a.store != nil {
		historyHandler := historyAPI.New(a.store)
		httpAPI.RegisterHandler(historyHandler.Path, historyHandler)
	}

	if err := httpAPI.Start(ctx, blocking); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("Failed to start API")

		return fmt.Errorf("%w: %w", errStartAPI, err)
	}

	return nil
}
