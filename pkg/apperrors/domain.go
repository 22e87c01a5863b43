package apperrors

import "net/http"

// Chat-domain error constructors. The chat-closed case is deliberately a
// distinct code so callers can tell it apart from a transient send failure.

// NewChatClosedError rejects a send on a completed claim's conversation.
func NewChatClosedError() *AppError {
	return New(CodeChatClosed, "chat", "Chat is closed: the claim has been completed", http.StatusForbidden)
}

// NewSendInFlightError marks a send dropped by the mutual-exclusion guard.
func NewSendInFlightError() *AppError {
	return New(CodeSendInFlight, "chat", "A message send is already in flight", http.StatusConflict)
}

// NewSendFailedError wraps a failed message persistence.
func NewSendFailedError(err error) *AppError {
	return Wrap(err, CodeSendFailed, "chat", "Failed to send message", http.StatusBadGateway)
}

// NewHistoryLoadError wraps a failed history fetch.
func NewHistoryLoadError(err error) *AppError {
	return Wrap(err, CodeHistoryLoadFailed, "chat", "Failed to load chat history", http.StatusBadGateway)
}

// NewEmptyMessageError rejects a send with neither text nor attachments.
func NewEmptyMessageError() *AppError {
	return New(CodeEmptyMessage, "chat", "Message must contain text or at least one attachment", http.StatusBadRequest)
}
