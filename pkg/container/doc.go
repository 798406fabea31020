// Package container talks to the Docker Engine API on behalf of the agent.
//
// Key components:
//   - Client: Pulls and tags images and looks up the managed compose service container.
//   - Runtime: Pulls the image of a release tag with resolved registry credentials,
//     and reports the tag the managed service currently runs.
//
// Usage example:
//
//	cli, err := container.NewClient(ctx)
//	runtime := container.NewRuntime(cli, auth.NewProvider(nil), container.RuntimeOptions{
//	    Host:       "123456789012.dkr.ecr.eu-west-1.amazonaws.com",
//	    Repository: "ferrum_node",
//	})
//	err = runtime.Pull(ctx, "master-101")
package container
