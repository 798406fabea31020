// Package history persists reconciliation cycle reports in a SQLite database.
//
// The store is an audit log. The deployed version is never read back from it.
//
// Usage example:
//
//	store, err := history.Open(ctx, "/var/lib/tagwatch/history.db")
//	if err != nil {
//	    logrus.WithError(err).Fatal("Failed to open cycle history")
//	}
//	defer store.Close()
//
//	entries, err := store.Recent(ctx, 20)
package history
