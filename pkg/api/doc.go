// Package api provides the optional HTTP server for tagwatch's operator endpoints.
// It handles token-authenticated requests for triggering cycles and reading status.
//
// Key components:
//   - API: Manages server setup and endpoint registration.
//   - RequireToken: Wraps HTTP handlers with bearer token validation.
//
// Usage example:
//
//	api := api.New("secure-token", ":8080")
//	api.RegisterHandler(statusHandler.Path, statusHandler)
//	if err := api.Start(ctx, false); err != nil {
//	    logrus.WithError(err).Error("API start failed")
//	}
//
// Every registered handler requires the token except the /health endpoint.
// The package uses a private ServeMux for routing and supports graceful shutdown.
package api
