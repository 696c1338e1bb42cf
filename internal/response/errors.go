package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials    ErrCode = "INVALID_CREDENTIALS"
	ErrDuplicateRegistration ErrCode = "DUPLICATE_REGISTRATION"
	ErrSessionInvalidated    ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired         ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid          ErrCode = "TOKEN_INVALID"
	ErrTokenExpired          ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrAccessDenied ErrCode = "ACCESS_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrUserNotFound   ErrCode = "USER_NOT_FOUND"
	ErrExamNotFound   ErrCode = "EXAM_NOT_FOUND"
	ErrResultNotFound ErrCode = "RESULT_NOT_FOUND"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"
	ErrSessionNotActive ErrCode = "SESSION_NOT_ACTIVE"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"
	ErrOptionOutOfRange ErrCode = "OPTION_OUT_OF_RANGE"
	ErrUnknownAction    ErrCode = "UNKNOWN_ACTION"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrCorruptState ErrCode = "CORRUPT_STATE"
	ErrInternal     ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrDuplicateRegistration:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrAccessDenied:
		return "You must pass this exam to access its certificate."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrUserNotFound:
		return "User not found."
	case ErrExamNotFound:
		return "Exam not found."
	case ErrResultNotFound:
		return "No result found for this exam."

	// ─── Exam session ──────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "No exam session is open for this exam."
	case ErrSessionNotActive:
		return "The exam session is not in progress."
	case ErrUnknownQuestion:
		return "The question does not belong to this exam."
	case ErrOptionOutOfRange:
		return "The selected option does not exist."
	case ErrUnknownAction:
		return "Unknown action."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrCorruptState:
		return "Stored data is corrupt. Please contact support."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
