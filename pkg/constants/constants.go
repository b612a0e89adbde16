// Package constants provides shared constants for the finance-calculators application.
package constants

// Numeric constants
const (
	// StepTolerance is the relative tolerance used when checking that a
	// number lies on an input's step grid
	StepTolerance = 1e-9
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultDefinitionsPath is where calculator definitions are looked up
	// when the configuration names none
	DefaultDefinitionsPath = "definitions"

	// EnvPrefix prefixes environment variable overrides, e.g. FINCALC_SERVER_ADDRESS
	EnvPrefix = "FINCALC"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Saved results defaults
const (
	// DefaultHistoryFile is the default location of the saved results list
	DefaultHistoryFile = "results.json"

	// DefaultHistoryLimit is the number of most recent saved results kept
	DefaultHistoryLimit = 50
)

// Goal seek defaults
const (
	// DefaultSeekTolerance is the default input tolerance for goal seek
	DefaultSeekTolerance = 0.01

	// DefaultSeekMaxIterations bounds the bisection loop
	DefaultSeekMaxIterations = 60
)
