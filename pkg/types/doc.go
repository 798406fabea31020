// Package types defines the core values and interfaces shared by tagwatch components.
// It provides the registry data model, the deployed-version state and the collaborator
// interfaces the reconciliation driver depends on.
//
// Key components:
//   - ImageTag / ImageRecord: A published tag and its publication time.
//   - TagPage: One bounded tag listing, with its truncation flag.
//   - Resolution: The outcome of a version resolution.
//   - DeployedVersion: The tag currently running locally, owned by the driver.
//   - CycleReport: The outcome of one reconciliation cycle.
//   - Catalog, Resolver, Puller, Restarter, Recorder: Collaborator interfaces.
//
// Usage example:
//
//	var deployed types.DeployedVersion
//	if deployed.Differs(resolution.Latest.Tag) {
//	    // pull and restart
//	}
package types
