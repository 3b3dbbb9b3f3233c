package errors

import "sort"

// Registered codes.
const (
	CodeConfigNotFound = "E101"
	CodeConfigParse    = "E102"
	CodeConfigInvalid  = "E103"
	CodeConfigFormat   = "E104"

	CodeDirectoryDriver = "E201"
	CodeDirectoryOpen   = "E202"
	CodeDirectoryLoad   = "E203"
	CodeDirectoryImport = "E204"
	CodeDirectoryWatch  = "E205"

	CodeSearchFailed  = "E301"
	CodeSearchParams  = "E302"
	CodeSearchTimeout = "E303"

	CodeProtocolMessage = "E401"
	CodeProtocolUpgrade = "E402"
	CodeRemoteStatus    = "E403"

	CodeCLIArgs = "E501"
	CodeCLIFlag = "E502"
)

// Template describes a registered code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]Template{
	// Configuration (E1xx)
	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "The configuration file given with --config does not exist.",
		Suggestion: "Omit --config to run with defaults, or create gogov.json.",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Configuration file could not be parsed",
		Detail:   "The file is not valid JSON or TOML.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is missing or out of range.",
	},
	CodeConfigFormat: {
		Category:   CategoryConfig,
		Message:    "Unsupported configuration format",
		Suggestion: "Use a .json or .toml file.",
	},

	// Directory and storage (E2xx)
	CodeDirectoryDriver: {
		Category:   CategoryDirectory,
		Message:    "Unknown directory driver",
		Suggestion: "Set directory.driver to memory, sqlite, postgres or remote.",
	},
	CodeDirectoryOpen: {
		Category: CategoryDirectory,
		Message:  "Directory could not be opened",
		Detail:   "The link directory backend failed to open or initialise its schema.",
	},
	CodeDirectoryLoad: {
		Category: CategoryDirectory,
		Message:  "Directory dump could not be loaded",
		Detail:   "The dump must be a JSON array of links, read from a file or an s3:// URL.",
	},
	CodeDirectoryImport: {
		Category: CategoryDirectory,
		Message:  "Directory import failed",
	},
	CodeDirectoryWatch: {
		Category: CategoryDirectory,
		Message:  "Directory dump could not be watched",
	},

	// Search (E3xx)
	CodeSearchFailed: {
		Category: CategorySearch,
		Message:  "Search failed",
	},
	CodeSearchParams: {
		Category:   CategorySearch,
		Message:    "Invalid search parameters",
		Detail:     "rowsPerPage must be a positive integer and currentPage a non-negative integer.",
		Suggestion: "Check the query string of the request.",
	},
	CodeSearchTimeout: {
		Category:   CategorySearch,
		Message:    "Search timed out",
		Suggestion: "Raise search.fetchTimeout or check the directory backend.",
	},

	// Live protocol and remote API (E4xx)
	CodeProtocolMessage: {
		Category: CategoryProtocol,
		Message:  "Invalid live session message",
	},
	CodeProtocolUpgrade: {
		Category: CategoryProtocol,
		Message:  "WebSocket upgrade failed",
	},
	CodeRemoteStatus: {
		Category:   CategoryProtocol,
		Message:    "Remote directory returned an error",
		Suggestion: "Check directory.url and that the remote gogov server is running.",
	},

	// Command line (E5xx)
	CodeCLIArgs: {
		Category: CategoryCLI,
		Message:  "Wrong number of arguments",
	},
	CodeCLIFlag: {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
	},
}

// Codes returns every registered code in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
