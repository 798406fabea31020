// Package ecr implements the registry catalog and pull credentials on top of
// Amazon Elastic Container Registry.
//
// Tags are listed with ListImages (tagged images only) and their push times
// fetched with DescribeImages in batches of up to 100 image ids. Pull
// credentials come from GetAuthorizationToken and are cached until shortly
// before they expire.
package ecr
