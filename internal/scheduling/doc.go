// Package scheduling runs reconciliation cycles on a cron schedule.
// It serializes cycles with a single-slot lock, records a metric for every tick
// and shuts down gracefully on SIGINT, SIGTERM or context cancellation.
package scheduling
