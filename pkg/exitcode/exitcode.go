// Package exitcode provides standardized exit codes for licensepage
package exitcode

// Exit codes for licensepage CLI
const (
	Success            = 0
	GeneralError       = 1
	ConfigError        = 2
	UnsupportedLicense = 3
	MetadataError      = 4
	NetworkError       = 5
	OutputError        = 10
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case UnsupportedLicense:
		return "Unsupported license"
	case MetadataError:
		return "Dependency metadata error"
	case NetworkError:
		return "Network error"
	case OutputError:
		return "Output write failure"
	default:
		return "Unknown error"
	}
}
