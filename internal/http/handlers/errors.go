// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on the human-readable message. Every error response carries both an
// HTTP status and one of these codes in the ErrorResponse envelope.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exceeded",
//	  "message": "Bạn đã dùng hết 10 tin nhắn cho hôm nay. ..."
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeEmptyMessage     = "empty_message"
	ErrCodeMessageTooLong   = "message_too_long"
	ErrCodeQuotaExceeded    = "quota_exceeded"
	ErrCodeUserNotFound     = "user_not_found"
	ErrCodeSendFailed       = "send_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeQuotaFailed      = "quota_failed"
	ErrCodeActivityFailed   = "activity_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
