// Package logging writes tagwatch's startup summary.
// It reports the version, the watched repository and the schedule of the first cycle.
package logging

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/internal/flags"
	"github.com/nicholas-fedor/tagwatch/internal/util"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// VersionSource reports the negotiated Docker API version.
type VersionSource interface {
	GetVersion() string
}

// WriteStartupMessage logs startup information based on configuration.
//
// Parameters:
//   - config: Parsed configuration.
//   - sched: The time of the first scheduled run, or zero if no schedule is set.
//   - client: Docker client reporting the API version, may be nil.
//   - deployed: Deployed version detected at startup.
//   - version: Version string of tagwatch.
func WriteStartupMessage(
	config flags.Config,
	sched time.Time,
	client VersionSource,
	deployed *types.DeployedVersion,
	version string,
) {
	if config.NoStartupMessage {
		return
	}

	startupLog := logrus.NewEntry(logrus.StandardLogger())

	var apiVersion string
	if client != nil {
		apiVersion = client.GetVersion()
	}

	startupLog.Info("Tagwatch ", version, " using Docker API v", apiVersion)

	pattern := config.TagPattern
	if pattern == "" {
		pattern = config.TagPrefix + "<build>"
	}

	startupLog.WithFields(logrus.Fields{
		"repository": config.Repository,
		"pattern":    pattern,
		"service":    config.Service,
	}).Info("Watching repository for release tags")

	LogDeployedInfo(startupLog, deployed)
	LogScheduleInfo(startupLog, config, sched)

	if config.APIEnabled() {
		startupLog.WithField("addr", config.APIAddr()).Info("The HTTP API is enabled.")
	}

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		startupLog.Warn(
			"Trace-level logging enabled: log will include sensitive information as credentials and tokens",
		)
	}
}

// LogDeployedInfo logs the deployed version the first cycle compares against.
func LogDeployedInfo(log *logrus.Entry, deployed *types.DeployedVersion) {
	if deployed == nil {
		return
	}

	if tag, known := deployed.Get(); known {
		log.WithField("deployed", tag).Info("Deployed release detected")

		return
	}

	log.Info("Deployed release unknown, the first cycle will sync the service")
}

// LogScheduleInfo logs information about the scheduling or run mode configuration.
//
// Parameters:
//   - log: The logrus.Entry used to write the schedule information.
//   - config: Parsed configuration.
//   - sched: The time of the first scheduled run, or zero if no schedule is set.
func LogScheduleInfo(log *logrus.Entry, config flags.Config, sched time.Time) {
	switch {
	case config.RunOnce && config.UpdateOnStart:
		log.Info("Run once mode: Disregarding update on start")
	case config.RunOnce:
		log.Info("Running a one time update.")
	case config.UpdateOnStart:
		log.Info("Update on startup enabled, running a cycle now")
	}

	if config.RunOnce {
		return
	}

	if config.Schedule != "" {
		log.Info("Polling the registry " + util.DescribeSchedule(config.Schedule))
	}

	switch {
	case !sched.IsZero():
		until := util.FormatDuration(time.Until(sched))
		log.Info("Next scheduled run: " + sched.Format("2006-01-02 15:04:05 -0700 MST"))
		log.Info("Note that the next check will be performed in " + until)
	case config.APIUpdate:
		log.Info("HTTP API enabled and periodic updates disabled")
	default:
		log.Info("Periodic updates are enabled with default schedule")
	}
}
