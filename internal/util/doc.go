// Package util formats tagwatch's poll schedule and cycle durations for logs.
//
// Usage example:
//
//	logrus.Info("Polling " + util.DescribeSchedule("@every 3600s")) // Polling every 1 hour
package util
