// Package services implements the chat core: quota admission, conversation
// ownership, the message orchestrator, and the recent-activity feed.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a message is empty or whitespace only.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds the configured
	// rune limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrQuotaExceeded indicates the caller has used today's allowance.
	// It is always delivered wrapped in a *QuotaError.
	ErrQuotaExceeded = errors.New("daily message quota exceeded")

	// ErrConversationNotFound indicates the conversation does not exist, is
	// deleted, or belongs to another user. The three cases are not
	// distinguished.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrUserNotFound indicates no user record backs the given id.
	ErrUserNotFound = errors.New("user not found")
)

// QuotaError carries the user-facing denial reason for ErrQuotaExceeded.
type QuotaError struct {
	Reason string
	Limit  int
}

func (e *QuotaError) Error() string { return ErrQuotaExceeded.Error() + ": " + e.Reason }

// Unwrap lets errors.Is match ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
