// Package metrics provides tracking and exposure of reconciliation cycle metrics.
// It integrates with Prometheus to monitor cycle outcomes, updates and failures.
//
// Key components:
//   - Metrics: Handles metric queuing and updates.
//   - NewMetric: Creates metrics from cycle reports.
//
// Usage example:
//
//	m := metrics.Default()
//	m.RegisterCycle(metrics.NewMetric(report, actions.FailureKind(report.Err)))
//	m.RegisterCycle(nil) // skipped cycle
//
// A nil metric marks a cycle skipped because another was still running.
package metrics
