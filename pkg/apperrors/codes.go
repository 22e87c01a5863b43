package apperrors

// ErrorCode identifies an error class across domains.
type ErrorCode string

const (
	// System errors.
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business errors.
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeLimitExceeded    ErrorCode = "LIMIT_EXCEEDED"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Auth.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Chat domain.
	CodeChatClosed        ErrorCode = "CHAT_CLOSED"
	CodeSendFailed        ErrorCode = "SEND_FAILED"
	CodeSendInFlight      ErrorCode = "SEND_IN_FLIGHT"
	CodeHistoryLoadFailed ErrorCode = "HISTORY_LOAD_FAILED"
	CodeEmptyMessage      ErrorCode = "EMPTY_MESSAGE"
)
