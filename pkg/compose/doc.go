// Package compose restarts the managed Docker Compose service and interprets
// the labels Compose attaches to the containers it creates.
//
// Key components:
//   - Restarter: Runs "docker compose up -d" for the managed service with the
//     target image tag exported to the compose file's environment.
//   - GetProjectName, GetServiceName: Read the Compose project and service labels.
//
// Usage example:
//
//	restarter := compose.NewRestarter(compose.Options{File: "docker-compose.yml", Service: "node"})
//	err := restarter.Restart(ctx, "master-101")
package compose
