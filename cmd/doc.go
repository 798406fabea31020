// Package cmd contains the command-line interface of tagwatch.
//
// The root command reads its flags and environment, builds the registry,
// Docker and compose clients and runs reconciliation cycles on a schedule,
// once, or on demand through the HTTP API.
//
// Usage:
//
//	cmd.Execute()
package cmd
