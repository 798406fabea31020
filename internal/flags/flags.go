package flags

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nicholas-fedor/tagwatch/pkg/compose"
	"github.com/nicholas-fedor/tagwatch/pkg/registry"
)

// DockerAPIMinVersion specifies the minimum Docker API version required by tagwatch.
const DockerAPIMinVersion string = "1.44"

// defaultPollIntervalSeconds defines the default polling interval in seconds (1 hour).
const defaultPollIntervalSeconds = 3600

const (
	defaultRegistryTimeout = 30 * time.Second
	defaultPullTimeout     = 10 * time.Minute
	defaultRestartTimeout  = 5 * time.Minute
	defaultTagPrefix       = "master-"
)

// Config holds the parsed configuration of one tagwatch instance.
type Config struct {
	// Registry.
	Region       string
	RegistryID   string
	RegistryHost string
	Repository   string
	TagPrefix    string
	TagPattern   string
	MaxResults   int

	// Compose service.
	ComposeCommand []string
	ComposeFile    string
	ComposeProject string
	ComposeDir     string
	Service        string
	TagEnv         string
	LocalImage     string

	// Scheduling.
	Schedule         string
	RunOnce          bool
	UpdateOnStart    bool
	NoStartupMessage bool
	RegistryTimeout  time.Duration
	PullTimeout      time.Duration
	RestartTimeout   time.Duration
	HistoryDB        string
	LockFile         string

	// HTTP API.
	APIUpdate        bool
	APIMetrics       bool
	APIHost          string
	APIPort          string
	APIToken         string
	APIPeriodicPolls bool
}

// Pattern builds the release tag pattern, preferring an explicit expression over the prefix.
func (c Config) Pattern() (*registry.TagPattern, error) {
	if c.TagPattern != "" {
		pattern, err := registry.NewTagPattern(c.TagPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: tag-pattern: %w", errInvalidOption, err)
		}

		return pattern, nil
	}

	pattern, err := registry.NewPrefixPattern(c.TagPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: tag-prefix: %w", errInvalidOption, err)
	}

	return pattern, nil
}

// APIEnabled reports whether any HTTP API endpoint is enabled.
func (c Config) APIEnabled() bool {
	return c.APIUpdate || c.APIMetrics
}

// APIAddr returns the listen address of the HTTP API, bracketing IPv6 hosts.
func (c Config) APIAddr() string {
	if strings.Contains(c.APIHost, ":") && net.ParseIP(c.APIHost) != nil {
		return "[" + c.APIHost + "]:" + c.APIPort
	}

	return c.APIHost + ":" + c.APIPort
}

// RegisterRegistryFlags adds flags locating the watched repository and its release tags.
func RegisterRegistryFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.String(
		"aws-region",
		envString("AWS_REGION"),
		"AWS region of the registry")

	flags.String(
		"registry-id",
		envString("TAGWATCH_REGISTRY_ID"),
		"Registry (AWS account) id, empty for the caller's default registry")

	flags.String(
		"registry-host",
		envString("TAGWATCH_REGISTRY_HOST"),
		"Registry host used in image references (default: <registry-id>.dkr.ecr.<region>.amazonaws.com)")

	flags.StringP(
		"repository",
		"r",
		envString("TAGWATCH_REPOSITORY"),
		"Repository to watch for release tags")

	flags.String(
		"tag-prefix",
		envString("TAGWATCH_TAG_PREFIX"),
		"Release tags start with this prefix followed by a build number")

	flags.String(
		"tag-pattern",
		envString("TAGWATCH_TAG_PATTERN"),
		"Regular expression for release tags, anchored at the start; overrides --tag-prefix")

	flags.Int(
		"max-results",
		envInt("TAGWATCH_MAX_RESULTS"),
		"Upper bound on the number of tags listed per cycle")

	flags.String(
		"registry-user",
		envString("REPO_USER"),
		"Username for pulls when no registry token is available")

	flags.String(
		"registry-password",
		envString("REPO_PASS"),
		"Password for pulls when no registry token is available, or a file containing it")
}

// RegisterDockerFlags adds flags used by the Docker API client and the compose restarter.
func RegisterDockerFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("host", "H", envString("DOCKER_HOST"), "daemon socket to connect to")
	flags.BoolP("tlsverify", "v", envBool("DOCKER_TLS_VERIFY"), "use TLS and verify the remote")
	flags.StringP(
		"api-version",
		"a",
		envString("DOCKER_API_VERSION"),
		"api version to use by docker client",
	)

	flags.String(
		"compose-command",
		envString("TAGWATCH_COMPOSE_COMMAND"),
		`Compose command, e.g. "docker compose" or "docker-compose"`)

	flags.StringP(
		"compose-file",
		"f",
		envString("TAGWATCH_COMPOSE_FILE"),
		"Compose file of the managed service")

	flags.StringP(
		"compose-project",
		"p",
		envString("TAGWATCH_COMPOSE_PROJECT"),
		"Compose project name")

	flags.String(
		"compose-dir",
		envString("TAGWATCH_COMPOSE_DIR"),
		"Working directory for compose commands")

	flags.String(
		"service",
		envString("TAGWATCH_SERVICE"),
		"Compose service to keep on the newest release")

	flags.String(
		"tag-env",
		envString("TAGWATCH_TAG_ENV"),
		"Environment variable passed to compose with the release tag")

	flags.String(
		"local-image",
		envString("TAGWATCH_LOCAL_IMAGE"),
		"Local image name additionally tagged onto each pulled release")
}

// RegisterSystemFlags adds flags that modify tagwatch's program flow.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.IntP(
		"interval",
		"i",
		envInt("TAGWATCH_POLL_INTERVAL"),
		"Poll interval (in seconds)")

	flags.StringP(
		"schedule",
		"s",
		envString("TAGWATCH_SCHEDULE"),
		"The cron expression which defines when to check for releases")

	flags.BoolP(
		"run-once",
		"R",
		envBool("TAGWATCH_RUN_ONCE"),
		"Run one cycle now and exit")

	flags.Bool(
		"update-on-start",
		envBool("TAGWATCH_UPDATE_ON_START"),
		"Run a cycle immediately on startup, then continue on schedule")

	flags.Duration(
		"registry-timeout",
		envDuration("TAGWATCH_REGISTRY_TIMEOUT"),
		"Timeout for resolving the latest release tag")

	flags.Duration(
		"pull-timeout",
		envDuration("TAGWATCH_PULL_TIMEOUT"),
		"Timeout for pulling a release image")

	flags.Duration(
		"restart-timeout",
		envDuration("TAGWATCH_RESTART_TIMEOUT"),
		"Timeout for restarting the compose service")

	flags.String(
		"history-db",
		envString("TAGWATCH_HISTORY_DB"),
		"SQLite database recording every cycle, empty to disable")

	flags.String(
		"lock-file",
		envString("TAGWATCH_LOCK_FILE"),
		"File locked while running so a second instance for the same service refuses to start")

	flags.Bool(
		"no-startup-message",
		envBool("TAGWATCH_NO_STARTUP_MESSAGE"),
		"Prevents tagwatch from logging a startup message")

	flags.StringP(
		"log-format",
		"l",
		envString("TAGWATCH_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON",
	)

	flags.BoolP(
		"debug",
		"d",
		envBool("TAGWATCH_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.BoolP(
		"trace",
		"",
		envBool("TAGWATCH_TRACE"),
		"Enable trace mode with very verbose logging - caution, exposes credentials")

	// https://no-color.org/
	flags.BoolP(
		"no-color",
		"",
		viper.IsSet("NO_COLOR"),
		"Disable ANSI color escape codes in log output")

	flags.String(
		"log-level",
		envString("TAGWATCH_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace",
	)
}

// RegisterAPIFlags adds flags for the optional HTTP API.
func RegisterAPIFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.Bool(
		"http-api-update",
		envBool("TAGWATCH_HTTP_API_UPDATE"),
		"Runs tagwatch in HTTP API mode, so that cycles must be triggered by a request")

	flags.Bool(
		"http-api-metrics",
		envBool("TAGWATCH_HTTP_API_METRICS"),
		"Runs tagwatch with the Prometheus metrics API enabled")

	flags.String(
		"http-api-host",
		envString("TAGWATCH_HTTP_API_HOST"),
		"Address to bind the HTTP API to (default: all interfaces)")

	flags.String(
		"http-api-port",
		envString("TAGWATCH_HTTP_API_PORT"),
		"Port to bind the HTTP API to (default: 8080)")

	flags.String(
		"http-api-token",
		envString("TAGWATCH_HTTP_API_TOKEN"),
		"Sets an authentication token to HTTP API requests.")

	flags.Bool(
		"http-api-periodic-polls",
		envBool("TAGWATCH_HTTP_API_PERIODIC_POLLS"),
		"Also run periodic cycles (specified with --interval and --schedule) if HTTP API updates are enabled",
	)
}

// envString retrieves a string value from an environment variable via Viper.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envInt retrieves an integer value from an environment variable via Viper.
func envInt(key string) int {
	viper.MustBindEnv(key)

	return viper.GetInt(key)
}

// envBool retrieves a boolean value from an environment variable via Viper.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// envDuration retrieves a duration value from an environment variable via Viper.
func envDuration(key string) time.Duration {
	viper.MustBindEnv(key)

	return viper.GetDuration(key)
}

// SetDefaults configures default values for environment variables.
// It must run before the flags are registered.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("DOCKER_HOST", "unix:///var/run/docker.sock")
	viper.SetDefault("DOCKER_API_VERSION", DockerAPIMinVersion)
	viper.SetDefault("TAGWATCH_POLL_INTERVAL", defaultPollIntervalSeconds)
	viper.SetDefault("TAGWATCH_TAG_PREFIX", defaultTagPrefix)
	viper.SetDefault("TAGWATCH_MAX_RESULTS", registry.DefaultMaxResults)
	viper.SetDefault("TAGWATCH_COMPOSE_COMMAND", strings.Join(compose.DefaultCommand, " "))
	viper.SetDefault("TAGWATCH_TAG_ENV", compose.DefaultTagEnv)
	viper.SetDefault("TAGWATCH_REGISTRY_TIMEOUT", defaultRegistryTimeout)
	viper.SetDefault("TAGWATCH_PULL_TIMEOUT", defaultPullTimeout)
	viper.SetDefault("TAGWATCH_RESTART_TIMEOUT", defaultRestartTimeout)
	viper.SetDefault("TAGWATCH_HTTP_API_PORT", "8080")
	viper.SetDefault("TAGWATCH_LOG_LEVEL", "info")
	viper.SetDefault("TAGWATCH_LOG_FORMAT", "auto")
}

// EnvConfig exports the Docker and fallback registry flags to the environment,
// where the Docker client and the credential lookup read them.
func EnvConfig(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()

	for _, pair := range []struct{ flag, env string }{
		{"host", "DOCKER_HOST"},
		{"api-version", "DOCKER_API_VERSION"},
		{"registry-user", "REPO_USER"},
		{"registry-password", "REPO_PASS"},
	} {
		value, err := flags.GetString(pair.flag)
		if err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}

		if err := setEnvOptStr(pair.env, value); err != nil {
			return err
		}
	}

	tls, err := flags.GetBool("tlsverify")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	return setEnvOptBool("DOCKER_TLS_VERIFY", tls)
}

// ReadConfig collects the parsed flags into a Config and validates it.
//
// ProcessFlagAliases must run first so the schedule reflects the interval.
//
// Parameters:
//   - flags: Parsed persistent flags of the root command.
//
// Returns:
//   - Config: Parsed configuration.
//   - error: Non-nil if a flag is missing or the combination is invalid.
func ReadConfig(flags *pflag.FlagSet) (Config, error) {
	var config Config

	reader := flagReader{flags: flags}

	config.Region = reader.str("aws-region")
	config.RegistryID = reader.str("registry-id")
	config.RegistryHost = reader.str("registry-host")
	config.Repository = reader.str("repository")
	config.TagPrefix = reader.str("tag-prefix")
	config.TagPattern = reader.str("tag-pattern")
	config.MaxResults = reader.integer("max-results")

	config.ComposeCommand = reader.words("compose-command")
	config.ComposeFile = reader.str("compose-file")
	config.ComposeProject = reader.str("compose-project")
	config.ComposeDir = reader.str("compose-dir")
	config.Service = reader.str("service")
	config.TagEnv = reader.str("tag-env")
	config.LocalImage = reader.str("local-image")

	config.Schedule = reader.str("schedule")
	config.RunOnce = reader.boolean("run-once")
	config.UpdateOnStart = reader.boolean("update-on-start")
	config.NoStartupMessage = reader.boolean("no-startup-message")
	config.RegistryTimeout = reader.duration("registry-timeout")
	config.PullTimeout = reader.duration("pull-timeout")
	config.RestartTimeout = reader.duration("restart-timeout")
	config.HistoryDB = reader.str("history-db")
	config.LockFile = reader.str("lock-file")

	config.APIUpdate = reader.boolean("http-api-update")
	config.APIMetrics = reader.boolean("http-api-metrics")
	config.APIHost = reader.str("http-api-host")
	config.APIPort = reader.str("http-api-port")
	config.APIToken = reader.str("http-api-token")
	config.APIPeriodicPolls = reader.boolean("http-api-periodic-polls")

	if reader.err != nil {
		return Config{}, reader.err
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	switch {
	case c.Repository == "":
		return fmt.Errorf("%w: repository", errMissingOption)
	case c.Service == "":
		return fmt.Errorf("%w: service", errMissingOption)
	case c.RegistryHost == "" && (c.RegistryID == "" || c.Region == ""):
		return fmt.Errorf("%w: registry-host, or registry-id and aws-region", errMissingOption)
	case c.TagPattern == "" && c.TagPrefix == "":
		return fmt.Errorf("%w: tag-prefix or tag-pattern", errMissingOption)
	case c.MaxResults < 0:
		return fmt.Errorf("%w: max-results %d", errInvalidOption, c.MaxResults)
	case len(c.ComposeCommand) == 0:
		return fmt.Errorf("%w: compose-command", errMissingOption)
	case c.RunOnce && c.APIUpdate:
		return fmt.Errorf("%w: run-once and http-api-update", errConflictingOptions)
	case c.APIEnabled() && c.APIToken == "":
		return fmt.Errorf("%w: http-api-token", errMissingOption)
	}

	if _, err := c.Pattern(); err != nil {
		return err
	}

	return nil
}

// flagReader reads flags and keeps the first error.
type flagReader struct {
	flags *pflag.FlagSet
	err   error
}

func (r *flagReader) str(name string) string {
	value, err := r.flags.GetString(name)
	r.keep(err)

	return value
}

// words splits a command line flag the way a POSIX shell would.
func (r *flagReader) words(name string) []string {
	words, err := shlex.Split(r.str(name))
	if err != nil {
		r.keep(fmt.Errorf("%w: %s: %w", errInvalidOption, name, err))

		return nil
	}

	return words
}

func (r *flagReader) integer(name string) int {
	value, err := r.flags.GetInt(name)
	r.keep(err)

	return value
}

func (r *flagReader) boolean(name string) bool {
	value, err := r.flags.GetBool(name)
	r.keep(err)

	return value
}

func (r *flagReader) duration(name string) time.Duration {
	value, err := r.flags.GetDuration(name)
	r.keep(err)

	return value
}

func (r *flagReader) keep(err error) {
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}
}

// setEnvOptStr sets an environment variable to a specified string value if needed.
// It skips setting if the value is empty or matches the current environment.
func setEnvOptStr(env string, opt string) error {
	if opt == "" || opt == os.Getenv(env) {
		return nil
	}

	if err := os.Setenv(env, opt); err != nil {
		return fmt.Errorf("%w: %s: %w", errSetEnvFailed, env, err)
	}

	return nil
}

// setEnvOptBool sets an environment variable to "1" if the boolean is true.
func setEnvOptBool(env string, opt bool) error {
	if opt {
		return setEnvOptStr(env, "1")
	}

	return nil
}

// GetSecretsFromFiles replaces secret flag values with file contents if they reference files.
func GetSecretsFromFiles(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()

	for _, secret := range []string{"http-api-token", "registry-password"} {
		if err := getSecretFromFile(flags, secret); err != nil {
			return fmt.Errorf("failed to get secret from flag %v: %w", secret, err)
		}
	}

	return nil
}

// getSecretFromFile updates a flag's value with file contents if it references a file.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)
	if flag == nil {
		return fmt.Errorf("%w: %q is not defined", errSetFlagFailed, secret)
	}

	value := flag.Value.String()
	if value != "" && isFilePath(value) {
		content, err := os.ReadFile(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errReadFileFailed, err)
		}

		if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// isFilePath determines if a string likely represents an existing file path.
func isFilePath(path string) bool {
	firstColon := strings.IndexRune(path, ':')
	if firstColon != 1 && firstColon != -1 {
		// If ':' exists but isn't the second character, it's likely not a file path (e.g., URLs).
		return false
	}

	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// ProcessFlagAliases synchronizes flag values based on helper flags.
// It derives the schedule from the interval and applies the debug/trace log level aliases.
func ProcessFlagAliases(flags *pflag.FlagSet) error {
	scheduleChanged := flags.Changed("schedule")
	intervalChanged := flags.Changed("interval")
	// Viper supplies env values as defaults, so compare against the defaults too.
	if val, _ := flags.GetString("schedule"); val != "" {
		scheduleChanged = true
	}

	interval, err := flags.GetInt("interval")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if interval != defaultPollIntervalSeconds {
		intervalChanged = true
	}

	if intervalChanged && scheduleChanged {
		return errScheduleConflict
	}

	if intervalChanged || !scheduleChanged {
		if interval <= 0 {
			return fmt.Errorf("%w: %d", errInvalidInterval, interval)
		}

		if err := flags.Set("schedule", fmt.Sprintf("@every %ds", interval)); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	if flagIsEnabled(flags, "debug") {
		setFlag(flags, "log-level", "debug")
	}

	if flagIsEnabled(flags, "trace") {
		setFlag(flags, "log-level", "trace")
	}

	return nil
}

// SetupLogging configures the global logger based on log-related flags.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter based on the specified format and color preference.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled checks if a boolean flag is set to true.
// It exits with a fatal error if the flag is not defined.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.Fatalf("The flag %q is not defined", name)
	}

	return value
}

func setFlag(flags *pflag.FlagSet, name, value string) {
	if err := flags.Set(name, value); err != nil {
		logrus.Errorf("Failed to set %s flag: %v", name, err)
	}
}
