// Package sources provides interfaces and implementations for retrieving
// lumina documents from source-control hosting providers.
//
// The package defines the Fetcher interface which abstracts resolving a
// repository's default branch, locating the lumina document at its root,
// decoding and validating it, and finding the last commit that touched it.
//
// Architecture:
//   - Fetcher: Interface for fetching one repository's document
//   - FetcherFactory: Returns the Fetcher registered for a provider
//   - FetchResult: Parsed document plus the commit it was read at
//   - FetchError: Value-shaped failure carrying a display message and an
//     optional HTTP status
//
// Current implementations:
//   - GitHubFetcher: GitHub REST API (repos, contents, commits endpoints)
//   - GitLabFetcher: GitLab REST API v4 (projects, repository files,
//     repository commits endpoints)
//
// Fetches are atomic: a failure never yields a partial result.
package sources
