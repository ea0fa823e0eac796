// Conversation HTTP handlers.
//
// This file exposes REST endpoints for stored conversations (users only):
//   - POST   /conversations                 (create, optionally with a first message)
//   - GET    /conversations                 (list, paginated, ETag support)
//   - GET    /conversations/{id}            (detail with messages)
//   - DELETE /conversations/{id}            (soft delete, idempotent)
//   - POST   /conversations/{id}/messages   (send bound to the conversation)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a stored result exists
// for (user, conversation, key), the handler replays that response and sets
// `Idempotency-Replayed: true` without consuming quota.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-mindcare-backend/internal/http/middleware"
	"github.com/tbourn/go-mindcare-backend/internal/services"
)

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// InitialMessage optionally titles the conversation and is sent into it.
	InitialMessage string `json:"initial_message" example:"Mình thấy áp lực vì kỳ thi sắp tới"`
}

// CreateConversationResponse is returned by CreateConversation. Reply is
// present when an initial message was sent.
type CreateConversationResponse struct {
	Conversation *services.ConversationSummary `json:"conversation"`
	Reply        *services.Reply               `json:"reply,omitempty"`
}

// ListConversationsResponse wraps a page of conversations.
type ListConversationsResponse struct {
	Conversations []services.ConversationSummary `json:"conversations"`
	Pagination    Pagination                     `json:"pagination"`
}

// ConversationMessageRequest is the JSON payload for a conversation send.
type ConversationMessageRequest struct {
	Message string `json:"message" example:"Hôm nay mình đã thử đi bộ 20 phút"`
}

// conversationID validates the :id path parameter, writing 400 when it is
// not a UUID.
func conversationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return "", false
	}
	return id, true
}

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Description Creates a conversation. A non-blank initial_message is used to generate the title and is then sent;
// @Description the conversation is kept even when that send is rejected.
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       body       body    handlers.CreateConversationRequest  false  "Create payload"
// @Success     201  {object}  handlers.CreateConversationResponse
// @Failure     400  {object}  handlers.ErrorResponse          "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse          "Authentication required"
// @Failure     429  {object}  handlers.QuotaExceededResponse  "Daily allowance used up"
// @Failure     500  {object}  handlers.ErrorResponse          "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}

	var req CreateConversationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	sum, reply, err := h.chatSvc.StartConversation(c.Request.Context(), uid, sanitizeContent(req.InitialMessage))
	if err != nil {
		if sum != nil {
			middleware.LoggerFrom(c).Info().Str("conversation_id", sum.ID).Err(err).Msg("conversation created, opening message rejected")
		}
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, CreateConversationResponse{Conversation: sum, Reply: reply})
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns the user's live conversations, most recently updated first, each with its latest message.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
// @Param       X-User-ID      header  string  true  "Authenticated user ID"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListConversationsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, latest, err := h.convSvc.Stats(ctx, uid); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"conversations:%d:%d:%d:%d"`, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.convSvc.List(ctx, uid, page, pageSize)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Conversation detail
// @Description Returns a conversation with its messages, oldest first. Deleted and foreign conversations are 404.
// @Tags        Conversations
// @Produce     json
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
// @Success     200  {object}  services.ConversationDetail
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}
	d, err := h.convSvc.Detail(c.Request.Context(), id, uid)
	if err != nil {
		failService(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Soft-deletes a conversation. Deleting an already deleted conversation succeeds.
// @Tags        Conversations
// @Param       X-User-ID  header  string  true  "Authenticated user ID"  example(user123)
// @Param       id         path    string  true  "Conversation ID (UUID)" format(uuid)
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Authentication required"
// @Failure     404  {object}  handlers.ErrorResponse "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}
	if err := h.convSvc.Delete(c.Request.Context(), id, uid); err != nil {
		failService(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

// PostConversationMessage godoc
// @ID          postConversationMessage
// @Summary     Send a message in a conversation
// @Description Sends a message bound to a stored conversation; the exchange is persisted.
// @Description Supports idempotency via the Idempotency-Key header (same key, same reply, no extra quota).
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true  "Authenticated user ID"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Conversation ID (UUID)" format(uuid)
// @Param       body             body    handlers.ConversationMessageRequest  true  "Message payload"
// @Success     200  {object}  services.Reply
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse          "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse          "Authentication required"
// @Failure     404  {object}  handlers.ErrorResponse          "Conversation not found"
// @Failure     429  {object}  handlers.QuotaExceededResponse  "Daily allowance used up"
// @Failure     500  {object}  handlers.ErrorResponse          "Internal error"
// @Router      /conversations/{id}/messages [post]
func (h *Handlers) PostConversationMessage(c *gin.Context) {
	uid, found := requireUser(c)
	if !found {
		return
	}
	id, valid := conversationID(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()

	var req ConversationMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Replay path.
	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.idemSvc != nil {
		rec, err := h.idemSvc.Lookup(ctx, uid, id, idemKey)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if rec != nil {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
			return
		}
	}

	reply, err := h.chatSvc.Send(ctx, services.SendRequest{
		Caller:         services.Caller{UserID: uid},
		ConversationID: id,
		Text:           sanitizeContent(req.Message),
	})
	if err != nil {
		failService(c, err, ErrCodeSendFailed)
		return
	}

	body, err := json.Marshal(reply)
	if err != nil {
		failService(c, err, ErrCodeSendFailed)
		return
	}

	// Store path (best effort). Apologies are not stored so a retry can
	// reach the provider again.
	if hasKey && h.idemSvc != nil && reply.Outcome != services.OutcomeProviderError {
		if err := h.idemSvc.Save(ctx, uid, id, idemKey, http.StatusOK, body); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency save failed")
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
