package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config file or environment)
	ExitDataError   = 3 // Data error (malformed occurrence log, unreadable bibliography, write failure)
	ExitMissingLog  = 4 // Occurrence log not found: the document has not been built yet
	ExitAPIError    = 5 // Google Books API error (auth, rate limit, network)
)
