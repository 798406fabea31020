// Package flags manages command-line flags and environment variables for tagwatch configuration.
// It configures the registry, the Docker runtime, the compose service and the scheduler via Cobra and Viper.
//
// Key components:
//   - RegisterRegistryFlags: Adds registry and release pattern flags.
//   - RegisterDockerFlags: Adds Docker API client and compose flags.
//   - RegisterSystemFlags: Adds scheduling, logging and timeout flags.
//   - RegisterAPIFlags: Adds HTTP API flags.
//   - ReadConfig: Collects the parsed flags into a Config.
//   - SetupLogging: Configures logrus based on flags.
//
// Usage example:
//
//	cmd := &cobra.Command{}
//	flags.SetDefaults()
//	flags.RegisterSystemFlags(cmd)
//	err := flags.SetupLogging(cmd.PersistentFlags())
//	if err != nil {
//	    logrus.WithError(err).Fatal("Logging setup failed")
//	}
//
// Every flag defaults from an environment variable bound through Viper.
package flags
