package update

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// retryAfterSeconds is advertised to clients rejected with 429.
const retryAfterSeconds = "30"

// Handler triggers reconciliation cycles via HTTP.
type Handler struct {
	fn   func(ctx context.Context) types.CycleReport // Cycle execution function.
	Path string                                      // API endpoint path.
	lock chan bool                                   // Single-slot lock shared with the scheduler.
}

// New creates a new Handler instance.
//
// Parameters:
//   - cycleFn: Function running one cycle.
//   - updateLock: Optional lock channel; if nil, a new one is created.
//
// Returns:
//   - *Handler: Handler serving /v1/update.
func New(cycleFn func(ctx context.Context) types.CycleReport, updateLock chan bool) *Handler {
	hLock := updateLock
	if hLock == nil {
		hLock = make(chan bool, 1)
		hLock <- true

		logrus.Debug("Initialized new update lock channel")
	}

	return &Handler{
		fn:   cycleFn,
		Path: "/v1/update",
		lock: hLock,
	}
}

// Handle runs one cycle and returns its report as JSON.
//
// The cycle outlives the request: a disconnecting client does not cancel it.
// A failed cycle still answers 200, the failure is part of the report.
func (handle *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Info("Received HTTP API update request")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)

		return
	}

	if _, err := io.Copy(io.Discard, r.Body); err != nil {
		logrus.WithError(err).Debug("Failed to read request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)

		return
	}

	select {
	case chanValue := <-handle.lock:
		defer func() {
			handle.lock <- chanValue
		}()
	default:
		logrus.Debug("Skipped update, another cycle already in progress")

		w.Header().Set("Retry-After", retryAfterSeconds)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "another cycle is already running",
			"api_version": "v1",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})

		return
	}

	report := handle.fn(context.WithoutCancel(r.Context()))

	writeJSON(w, http.StatusOK, map[string]any{
		"report":      report,
		"api_version": "v1",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(buf.Bytes()); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}
