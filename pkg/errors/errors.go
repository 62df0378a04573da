// Package errors defines the sentinel errors shared by the mirror and small helpers
// for adding context to them.
package errors

import "fmt"

// Sync and upstream errors.
var (
	// ErrFormat is returned for a malformed compressed container.
	ErrFormat = fmt.Errorf("malformed compressed container")
	// ErrHashMismatch is returned when downloaded content does not match its expected SHA-256.
	ErrHashMismatch = fmt.Errorf("content hash mismatch")
	// ErrFetch is returned for network and HTTP level failures.
	ErrFetch = fmt.Errorf("fetch failed")
	// ErrPackageNotFound is returned when a package id is unknown.
	ErrPackageNotFound = fmt.Errorf("package not found")
	// ErrNoMatchingVersions is returned when an import extracts zero installer candidates.
	ErrNoMatchingVersions = fmt.Errorf("no matching versions")
	// ErrImportInProgress is returned when a package is already being imported.
	ErrImportInProgress = fmt.Errorf("import already in progress")
	// ErrCatalogUnavailable is returned when no local catalog snapshot exists.
	ErrCatalogUnavailable = fmt.Errorf("catalog snapshot unavailable")
)

// Repository errors.
var (
	ErrInstallerNotFound = fmt.Errorf("installer not found")
	ErrInvalidPath       = fmt.Errorf("invalid path")
	ErrNoStoragePath     = fmt.Errorf("installer has no storage path")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename config file")
	ErrConfigMarshal     = fmt.Errorf("failed to marshal config")
)

// Hook errors.
var (
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrPackageNotFoundWithID returns ErrPackageNotFound annotated with the package id.
func ErrPackageNotFoundWithID(id string) error {
	return fmt.Errorf("%w: %s", ErrPackageNotFound, id)
}

// ErrUnexpectedStatus returns ErrFetch annotated with an HTTP status code and URL.
func ErrUnexpectedStatus(code int, url string) error {
	return fmt.Errorf("unexpected status code %d for %s: %w", code, url, ErrFetch)
}
