// Package update provides an HTTP API handler for triggering a reconciliation cycle.
// It manages update requests with a single-slot lock shared with the scheduler.
//
// Key components:
//   - Handler: Processes HTTP requests to trigger a cycle.
//   - New: Creates a handler with a cycle function and lock.
//
// Usage example:
//
//	handler := update.New(driver.Cycle, lock)
//	api.RegisterFunc(handler.Path, handler.Handle)
//
// A request arriving while a cycle runs is answered with 429 Too Many Requests.
package update
