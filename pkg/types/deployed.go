package types

import "sync"

// DeployedVersion tracks the tag currently running for the managed service.
//
// The zero value is unknown. Only the reconciliation driver writes it; the mutex
// exists so status readers (the HTTP API) never observe a torn value.
type DeployedVersion struct {
	mu    sync.RWMutex
	tag   ImageTag
	known bool
}

// NewDeployedVersion returns a DeployedVersion already set to tag.
func NewDeployedVersion(tag ImageTag) *DeployedVersion {
	return &DeployedVersion{tag: tag, known: tag != ""}
}

// Get returns the deployed tag and whether it is known.
func (d *DeployedVersion) Get() (ImageTag, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.tag, d.known
}

// Set records tag as the deployed version.
func (d *DeployedVersion) Set(tag ImageTag) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tag = tag
	d.known = tag != ""
}

// Differs reports whether tag differs from the deployed version.
// An unknown deployed version differs from every tag.
func (d *DeployedVersion) Differs(tag ImageTag) bool {
	current, known := d.Get()

	return !known || current != tag
}
