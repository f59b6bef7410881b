// Package output provides JSON and styled output formatting and error handling.
package output

// Exit codes.
const (
	ExitOK           = 0  // Success
	ExitUsage        = 1  // Invalid arguments or flags
	ExitNotFound     = 2  // Resource not found
	ExitAuth         = 3  // Not authenticated
	ExitForbidden    = 4  // Access denied
	ExitRateLimit    = 5  // Rate limited (429)
	ExitNetwork      = 6  // Connection/DNS/timeout error
	ExitAPI          = 7  // Server returned error
	ExitValidation   = 8  // Server rejected the payload (400)
	ExitSessionEnded = 9  // Refresh failed, credentials cleared
	ExitAmbiguous    = 10 // Multiple matches for name
)

// Error codes for JSON envelope.
const (
	CodeUsage        = "usage"
	CodeNotFound     = "not_found"
	CodeAuth         = "auth_required"
	CodeForbidden    = "forbidden"
	CodeRateLimit    = "rate_limit"
	CodeNetwork      = "network"
	CodeAPI          = "api_error"
	CodeValidation   = "validation"
	CodeSessionEnded = "session_ended"
	CodeAmbiguous    = "ambiguous"
)

// ExitCodeFor returns the exit code for a given error code.
func ExitCodeFor(code string) int {
	switch code {
	case CodeUsage:
		return ExitUsage
	case CodeNotFound:
		return ExitNotFound
	case CodeAuth:
		return ExitAuth
	case CodeForbidden:
		return ExitForbidden
	case CodeRateLimit:
		return ExitRateLimit
	case CodeNetwork:
		return ExitNetwork
	case CodeAPI:
		return ExitAPI
	case CodeValidation:
		return ExitValidation
	case CodeSessionEnded:
		return ExitSessionEnded
	case CodeAmbiguous:
		return ExitAmbiguous
	default:
		return ExitAPI
	}
}
