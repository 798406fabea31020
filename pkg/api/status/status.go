// Package status provides the HTTP handler reporting the driver state and deployed version.
package status

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// Source reports the reconciliation state.
type Source interface {
	Status() (types.State, types.CycleReport)
	Deployed() (types.ImageTag, bool)
}

// Response is the body served by the status endpoint.
type Response struct {
	State      types.State        `json:"state"`
	Deployed   types.ImageTag     `json:"deployed,omitempty"`
	Known      bool               `json:"deployed_known"`
	LastReport *types.CycleReport `json:"last_report,omitempty"`
}

// Handler provides the status endpoint.
type Handler struct {
	Path   string // Endpoint path
	Source Source // Driver state source
}

// New creates a new status handler.
//
// Parameters:
//   - source: Reconciliation state source, usually the driver.
//
// Returns:
//   - *Handler: Initialized handler for /v1/status.
func New(source Source) *Handler {
	return &Handler{
		Path:   "/v1/status",
		Source: source,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Debug("Received status request")

	state, last := h.Source.Status()
	deployed, known := h.Source.Deployed()

	response := Response{
		State:    state,
		Deployed: deployed,
		Known:    known,
	}

	// A zero report means no cycle has finished yet.
	if !last.StartedAt.IsZero() {
		response.LastReport = &last
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logrus.WithError(err).Error("Failed to encode status response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)

		return
	}
}
