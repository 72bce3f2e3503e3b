// Package integration provides integration tests for the block store API server.
// These tests run the complete server against in-process fakes of the GitHub
// and GitLab APIs and exercise adding, listing, and removing sources.
package integration
