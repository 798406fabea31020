// Package actions provides the reconciliation logic that keeps the managed
// service on the newest release tag.
//
// Key components:
//   - Driver: Runs one reconciliation cycle (resolve, compare, pull, restart)
//     and owns the deployed version.
//   - InitialVersion: Derives the starting deployed version from the running service.
//   - CheckForSanity: Validates the compose setup before the first cycle.
//   - AcquireInstanceLock: Refuses a second instance for the same service.
//   - FailureKind: Classifies cycle errors for metrics.
//
// Usage example:
//
//	driver, err := actions.NewDriver(actions.Dependencies{
//	    Resolver:  resolver,
//	    Puller:    runtime,
//	    Restarter: restarter,
//	}, types.NewDeployedVersion(""), actions.Timeouts{})
//	report := driver.Cycle(ctx)
package actions
