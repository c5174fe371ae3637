package testutil

import (
	"os"
	"strings"
	"testing"
)

// RequireTestEnvironment fails the test unless GO_ENV is "test".
// Suites that touch a database call it before connecting.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test, got GO_ENV=%q", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the rest of the process
// and refuses to continue if DATABASE_URL points at a non-test database.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}
	RequireTestEnvironment(t)

	if url := os.Getenv("DATABASE_URL"); !IsTestDatabaseURL(url) {
		t.Fatalf("SAFETY CHECK FAILED: DATABASE_URL %s does not look like a test database", MaskDatabaseURL(url))
	}
}

// IsTestDatabaseURL reports whether url is empty, SQLite, or names a *_test database
func IsTestDatabaseURL(url string) bool {
	if url == "" || strings.HasPrefix(url, "sqlite://") {
		return true
	}
	name := url
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}
	return strings.HasSuffix(name, "_test") || strings.HasSuffix(name, "test")
}

// MaskDatabaseURL hides the credentials of a postgres URL for logging
func MaskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":****@" + host
}
