// Package history provides the HTTP handler listing recent reconciliation cycles.
package history

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/history"
)

// DefaultLimit is the number of entries returned without a limit parameter.
const DefaultLimit = 20

// Lister reads stored cycle reports.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler provides the history endpoint.
type Handler struct {
	Path  string
	Store Lister
}

// New creates a history handler serving /v1/history.
func New(store Lister) *Handler {
	return &Handler{
		Path:  "/v1/history",
		Store: store,
	}
}

// ServeHTTP implements http.Handler. The optional "limit" query parameter
// bounds the number of entries.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)

			return
		}

		limit = min(parsed, history.MaxLimit)
	}

	entries, err := h.Store.Recent(r.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to read cycle history")
		http.Error(w, "Failed to read cycle history", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(map[string]any{"cycles": entries}); err != nil {
		logrus.WithError(err).Error("Failed to encode history response")
	}
}
