// Package registry resolves the newest release tag published to a container registry.
//
// Key components:
//   - TagPattern: Release naming convention (literal prefix followed by a numeric build id).
//   - Resolver: Lists tags, filters them with a TagPattern, looks up publication times
//     in bulk and selects the most recently published one.
//   - ErrRegistry / ErrNoMatchingTag: Failure kinds callers classify with errors.Is.
//
// Usage example:
//
//	pattern, _ := registry.NewPrefixPattern("master-")
//	resolver, _ := registry.NewResolver(catalog, registry.Options{
//	    Repository: "ferrum_node",
//	    Pattern:    pattern,
//	    MaxResults: 1000,
//	})
//	res, err := resolver.Resolve(ctx)
//
// Registry access is abstracted by types.Catalog; the ecr subpackage provides
// the AWS ECR implementation.
package registry
