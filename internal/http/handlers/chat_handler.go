// Chat HTTP handlers.
//
// This file exposes the session-level chat endpoints:
//   - POST   /chat/messages   (send a message, guest or user)
//   - POST   /chat/check      (screen text without sending it)
//   - GET    /chat/quota      (today's allowance, users only)
//   - DELETE /chat/session    (forget the caller's conversational context)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/http/middleware"
	"github.com/tbourn/go-mindcare-backend/internal/services"
	"github.com/tbourn/go-mindcare-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ChatService runs the message orchestrator.
type ChatService interface {
	Send(ctx context.Context, req services.SendRequest) (*services.Reply, error)
	StartConversation(ctx context.Context, userID, opening string) (*services.ConversationSummary, *services.Reply, error)
	CheckInappropriate(text string) bool
	ResetSession(ctx context.Context, c services.Caller) error
}

// ConversationService reads and deletes stored conversations.
type ConversationService interface {
	List(ctx context.Context, userID string, page, pageSize int) ([]services.ConversationSummary, int64, error)
	Detail(ctx context.Context, id, userID string) (*services.ConversationDetail, error)
	Delete(ctx context.Context, id, userID string) error
	Stats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// QuotaService reports a user's daily allowance.
type QuotaService interface {
	Status(ctx context.Context, userID string) (services.Quota, error)
}

// ActivityService builds the recent-activity feed.
type ActivityService interface {
	Recent(ctx context.Context, userID string, limit int) ([]services.ActivityItem, error)
}

// IdempotencyService stores and replays conversation sends.
type IdempotencyService interface {
	Lookup(ctx context.Context, userID, conversationID, key string) (*domain.Idempotency, error)
	Save(ctx context.Context, userID, conversationID, key string, status int, body []byte) error
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers. Idempotency may be nil.
type Services struct {
	Chat          ChatService
	Conversations ConversationService
	Quota         QuotaService
	Activity      ActivityService
	Idempotency   IdempotencyService
}

// Handlers groups the HTTP endpoints of the chat API.
type Handlers struct {
	chatSvc  ChatService
	convSvc  ConversationService
	quotaSvc QuotaService
	actSvc   ActivityService
	idemSvc  IdempotencyService
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		chatSvc:  s.Chat,
		convSvc:  s.Conversations,
		quotaSvc: s.Quota,
		actSvc:   s.Activity,
		idemSvc:  s.Idempotency,
	}
}

//
// DTOs
//

// SendMessageRequest is the JSON payload for sending a message.
type SendMessageRequest struct {
	// Message is the user's text.
	Message string `json:"message" example:"Dạo này mình hay mất ngủ và thấy lo lắng"`
	// ConversationID optionally binds the exchange to a stored conversation.
	// Guests cannot use it.
	ConversationID string `json:"conversation_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// CheckRequest is the JSON payload for screening text.
type CheckRequest struct {
	Text string `json:"text" example:"cá độ bóng đá"`
}

// CheckResponse reports whether text would be refused.
type CheckResponse struct {
	Inappropriate bool `json:"inappropriate"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// caller returns the identity resolved by middleware.Identity. ok is false
// when neither a user nor a guest id is present.
func caller(c *gin.Context) (services.Caller, bool) {
	cl := services.Caller{UserID: middleware.UserID(c), GuestID: middleware.GuestID(c)}
	return cl, cl.UserID != "" || cl.GuestID != ""
}

// requireUser returns the authenticated user id or writes 401.
func requireUser(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return "", false
	}
	return uid, true
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent converts CRLF/CR to LF, collapses runs of blank lines and
// trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a message
// @Description Screens the message, consumes one unit of the daily allowance and returns the assistant reply.
// @Description Inappropriate messages get a fixed refusal without consuming quota. Provider failures return a fixed apology.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID     header  string  false "Authenticated user ID"                example(user123)
// @Param       X-Session-ID  header  string  false "Guest session ID (generated if absent)"
// @Param       body          body    handlers.SendMessageRequest  true  "Message payload"
//
// @Success     200  {object}  services.Reply
// @Failure     400  {object}  handlers.ErrorResponse          "Empty or too long"
// @Failure     401  {object}  handlers.ErrorResponse          "Guests cannot use conversations"
// @Failure     404  {object}  handlers.ErrorResponse          "Conversation not found"
// @Failure     429  {object}  handlers.QuotaExceededResponse  "Daily allowance used up"
// @Failure     500  {object}  handlers.ErrorResponse          "Internal error"
// @Router      /chat/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	cl, found := caller(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing caller identity")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	convID := strings.TrimSpace(req.ConversationID)
	if convID != "" && cl.IsGuest() {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to use conversations")
		return
	}

	reply, err := h.chatSvc.Send(c.Request.Context(), services.SendRequest{
		Caller:         cl,
		ConversationID: convID,
		Text:           sanitizeContent(req.Message),
	})
	if err != nil {
		failService(c, err, ErrCodeSendFailed)
		return
	}
	ok(c, http.StatusOK, reply)
}

// CheckInappropriate godoc
// @ID          checkInappropriate
// @Summary     Screen text
// @Description Reports whether the text would be refused as inappropriate. Consumes no quota.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CheckRequest  true  "Text to screen"
// @Success     200  {object}  handlers.CheckResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /chat/check [post]
func (h *Handlers) CheckInappropriate(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	ok(c, http.StatusOK, CheckResponse{Inappropriate: h.chatSvc.CheckInappropriate(req.Text)})
}

// Quota godoc
// @ID          getQuota
// @Summary     Daily allowance
// @Description Returns today's usage and effective limit (base allowance plus active plans).
// @Tags        Chat
// @Produce     json
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Success     200  {object}  services.Quota
// @Failure     401  {object}  handlers.ErrorResponse  "Authentication required"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/quota [get]
func (h *Handlers) Quota(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	q, err := h.quotaSvc.Status(c.Request.Context(), uid)
	if err != nil {
		failService(c, err, ErrCodeQuotaFailed)
		return
	}
	ok(c, http.StatusOK, q)
}

// ResetSession godoc
// @ID          resetSession
// @Summary     Reset conversational context
// @Description Forgets the recent turns kept for the caller. Stored conversations are not touched.
// @Tags        Chat
// @Param       X-User-ID     header  string  false "Authenticated user ID"
// @Param       X-Session-ID  header  string  false "Guest session ID"
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/session [delete]
func (h *Handlers) ResetSession(c *gin.Context) {
	cl, found := caller(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing caller identity")
		return
	}
	if err := h.chatSvc.ResetSession(c.Request.Context(), cl); err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
