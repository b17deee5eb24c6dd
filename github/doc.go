// Package github implements the GitHub GraphQL provider.
//
// The provider resolves which credential scheme is active from its Settings
// (a personal access token, or a GitHub App installation), obtains bearer
// material through that scheme, and dispatches operations to GitHub's
// GraphQL endpoint. App installation tokens are cached and transparently
// refreshed; see the githubapp package.
//
// Two providers are registered with the host registry: "github" (blocking)
// and "github-async" (channel-based). Both share the same credential and
// dispatch logic; they differ only in how results are delivered.
package github
