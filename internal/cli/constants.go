package cli

// Default values for CLI flags and output.
const (
	// DefaultSearchLimit is the default number of search results to return.
	DefaultSearchLimit = 50
	// MaxNameLength is the maximum length of a package name in tables.
	MaxNameLength = 40
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)
