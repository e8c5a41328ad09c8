package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrProctorAccessOnly   ErrCode = "PROCTOR_ACCESS_ONLY"
	ErrNotAttemptOwner     ErrCode = "NOT_ATTEMPT_OWNER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Business rules ────────────────────────────────────────────────
	ErrExamNotPublished      ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotOpen           ErrCode = "EXAM_OUTSIDE_SCHEDULE"
	ErrNotEnrolled           ErrCode = "NOT_ENROLLED"
	ErrAttendanceBelowMin    ErrCode = "ATTENDANCE_BELOW_MINIMUM"
	ErrMaxAttemptsReached    ErrCode = "MAX_ATTEMPTS_REACHED"
	ErrAttemptNotInProgress  ErrCode = "ATTEMPT_NOT_IN_PROGRESS"
	ErrQuestionNotAssigned   ErrCode = "QUESTION_NOT_ASSIGNED"
	ErrAttemptExpired        ErrCode = "ATTEMPT_EXPIRED"
	ErrResultsAlreadyPublic  ErrCode = "RESULTS_ALREADY_PUBLISHED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrProctorAccessOnly:
		return "This resource is restricted to proctors."
	case ErrNotAttemptOwner:
		return "You may only access your own exam attempts."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Business rules ────────────────────────────────────────────────
	case ErrExamNotPublished:
		return "This exam is not published."
	case ErrExamNotOpen:
		return "This exam is outside its scheduled window."
	case ErrNotEnrolled:
		return "You are not enrolled in this exam's course or classes."
	case ErrAttendanceBelowMin:
		return "Your attendance is below the minimum required for this exam."
	case ErrMaxAttemptsReached:
		return "You have used all permitted attempts for this exam."
	case ErrAttemptNotInProgress:
		return "This attempt is not in progress."
	case ErrQuestionNotAssigned:
		return "This question is not part of your assigned question set."
	case ErrAttemptExpired:
		return "The time limit for this attempt has elapsed."
	case ErrResultsAlreadyPublic:
		return "Results for this exam have already been published."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
