// Package services – ChatService
//
// This file implements ChatService, the orchestrator that turns one inbound
// message into a reply. Each call runs to exactly one outcome:
//
//	received -> screened -> quota checked -> context loaded -> provider called -> persisted -> responded
//
// with three early exits: a message matching the inappropriate screen gets
// a fixed refusal and consumes nothing; a caller over today's allowance gets
// a *QuotaError; a provider failure or timeout gets a fixed apology. Provider
// and storage failures are logged here and never reach the caller.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-mindcare-backend/internal/history"
	"github.com/tbourn/go-mindcare-backend/internal/llm"
	"github.com/tbourn/go-mindcare-backend/internal/observability"
	"github.com/tbourn/go-mindcare-backend/internal/screen"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcome names how a message was handled.
type Outcome string

const (
	OutcomeAnswered              Outcome = "answered"
	OutcomeRejectedInappropriate Outcome = "rejected_inappropriate"
	OutcomeRejectedQuota         Outcome = "rejected_quota"
	OutcomeProviderError         Outcome = "provider_error"
)

// Fixed texts.
const (
	SystemPersona = "Bạn là MindCare, một người bạn đồng hành hỗ trợ sức khỏe tinh thần. " +
		"Hãy trả lời bằng tiếng Việt, ấm áp, không phán xét, ngắn gọn và tập trung lắng nghe cảm xúc của người dùng. " +
		"Bạn không phải bác sĩ và không đưa ra chẩn đoán hay kê đơn thuốc. " +
		"Nếu người dùng nhắc đến ý định tự làm hại bản thân, hãy thể hiện sự quan tâm và khuyến khích họ liên hệ ngay với người thân, " +
		"chuyên gia tâm lý hoặc đường dây nóng hỗ trợ khẩn cấp."

	OpeningTurn = "Chào bạn, mình là MindCare. Mình ở đây để lắng nghe bạn. Hôm nay bạn cảm thấy thế nào?"

	RefusalText = "Xin lỗi, mình không thể hỗ trợ các nội dung liên quan đến cờ bạc, bạo lực hoặc chất cấm. " +
		"Nếu bạn đang gặp chuyện khó khăn, mình luôn sẵn sàng lắng nghe bạn chia sẻ về cảm xúc của mình."

	ApologyText = "Xin lỗi, hiện mình đang gặp sự cố và chưa thể trả lời bạn. Bạn vui lòng thử lại sau ít phút nhé."
)

// Caller identifies who sent a message. Exactly one of UserID and GuestID
// is set; registered users are quota-checked against their user row,
// guests against the in-memory guest allowance.
type Caller struct {
	UserID  string
	GuestID string
}

// IsGuest reports whether the caller is unauthenticated.
func (c Caller) IsGuest() bool { return c.UserID == "" }

// SessionID keys the caller's conversational context.
func (c Caller) SessionID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return "guest:" + c.GuestID
}

// SendRequest is one inbound message.
type SendRequest struct {
	Caller Caller
	// ConversationID binds the exchange to a stored conversation owned by
	// Caller.UserID. Empty means the exchange lives only in session context.
	ConversationID string
	Text           string
}

// Reply is the result of Send. Remaining is nil when no quota was consumed.
type Reply struct {
	Text           string  `json:"text"`
	IsCrisis       bool    `json:"is_crisis"`
	Remaining      *int    `json:"remaining,omitempty"`
	Outcome        Outcome `json:"outcome"`
	ConversationID string  `json:"conversation_id,omitempty"`
}

// ChatService orchestrates screening, quota, context, the provider call and
// persistence for each message.
type ChatService struct {
	Screen        screen.Screener
	Quota         *QuotaService
	Guests        *GuestAllowance
	History       history.Store
	Conversations *ConversationService
	Provider      llm.Provider
	Params        llm.Params

	// Timeout bounds one provider call; zero means no extra deadline.
	Timeout time.Duration
	// MaxMessageRunes rejects longer messages; zero disables the check.
	MaxMessageRunes int

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CheckInappropriate reports whether text matches the inappropriate screen.
func (s *ChatService) CheckInappropriate(text string) bool {
	return s.Screen.Inappropriate(text)
}

// Send handles one message. Validation failures return ErrEmptyMessage or
// ErrMessageTooLong; a foreign or missing conversation returns
// ErrConversationNotFound; an exhausted allowance returns a *QuotaError; an
// unknown user returns ErrUserNotFound. Every other outcome, including
// provider failure, is a Reply.
func (s *ChatService) Send(ctx context.Context, req SendRequest) (*Reply, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("user.id", req.Caller.UserID),
			attribute.Bool("guest", req.Caller.IsGuest()),
			attribute.String("conversation.id", req.ConversationID),
		),
	)
	defer span.End()

	// Received
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}

	// Screened
	if s.Screen.Inappropriate(text) {
		span.SetAttributes(attribute.String("outcome", string(OutcomeRejectedInappropriate)))
		observability.RecordExchange(string(OutcomeRejectedInappropriate))
		return &Reply{
			Text:           RefusalText,
			Outcome:        OutcomeRejectedInappropriate,
			ConversationID: req.ConversationID,
		}, nil
	}

	if req.ConversationID != "" {
		if req.Caller.IsGuest() {
			return nil, ErrConversationNotFound
		}
		if _, err := s.Conversations.Get(ctx, req.ConversationID, req.Caller.UserID); err != nil {
			return nil, err
		}
	}

	// QuotaChecked
	q, err := s.consume(ctx, req.Caller)
	if err != nil {
		return nil, err
	}
	if !q.Admitted {
		span.SetAttributes(attribute.String("outcome", string(OutcomeRejectedQuota)))
		observability.RecordExchange(string(OutcomeRejectedQuota))
		caller := "user"
		if req.Caller.IsGuest() {
			caller = "guest"
		}
		observability.RecordQuotaDenial(caller)
		return nil, &QuotaError{Reason: q.DenialReason, Limit: q.Limit}
	}
	remaining := q.Remaining

	// ContextLoaded
	crisis := s.Screen.Crisis(text)
	if crisis {
		observability.RecordCrisis()
	}
	span.SetAttributes(attribute.Bool("crisis", crisis))

	sessionID := req.Caller.SessionID()
	past, err := s.History.Get(ctx, sessionID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("history load failed")
		past = nil
	}
	sentAt := s.now()

	// ProviderCalled
	answer, err := s.complete(ctx, BuildPrompt(past, text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider failed")
		span.SetAttributes(attribute.String("outcome", string(OutcomeProviderError)))
		observability.RecordExchange(string(OutcomeProviderError))
		zerolog.Ctx(ctx).Error().Err(err).
			Str("provider", s.Provider.Name()).
			Str("session_id", sessionID).
			Msg("completion provider failed")
		return &Reply{
			Text:           ApologyText,
			Remaining:      &remaining,
			Outcome:        OutcomeProviderError,
			ConversationID: req.ConversationID,
		}, nil
	}
	repliedAt := s.now()

	// Persisted
	if err := s.History.Append(ctx, sessionID,
		history.Turn{Role: history.RoleUser, Text: text, At: sentAt},
		history.Turn{Role: history.RoleAssistant, Text: answer, At: repliedAt},
	); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("history append failed")
	}
	if req.ConversationID != "" {
		if _, err := s.Conversations.AppendExchange(ctx, req.ConversationID, req.Caller.UserID,
			text, answer, crisis, sentAt, repliedAt); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).
				Str("conversation_id", req.ConversationID).
				Msg("persisting exchange failed")
		}
	}

	// Responded
	span.SetAttributes(attribute.String("outcome", string(OutcomeAnswered)))
	observability.RecordExchange(string(OutcomeAnswered))
	return &Reply{
		Text:           answer,
		IsCrisis:       crisis,
		Remaining:      &remaining,
		Outcome:        OutcomeAnswered,
		ConversationID: req.ConversationID,
	}, nil
}

// StartConversation creates a conversation for a registered user. A
// non-blank opening message titles the conversation and is then sent into
// it; the returned Reply is nil when there was no opening message.
//
// The conversation is kept even when the opening message is rejected; the
// error from Send is returned alongside it.
func (s *ChatService) StartConversation(ctx context.Context, userID, opening string) (*ConversationSummary, *Reply, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "StartConversation",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	opening = strings.TrimSpace(opening)
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(opening) > s.MaxMessageRunes {
		return nil, nil, ErrMessageTooLong
	}

	// Do not ask the provider to title content the screen refuses, nor spend
	// a provider call on a user whose allowance is already used up.
	titleFrom := opening
	if titleFrom != "" && s.Screen.Inappropriate(titleFrom) {
		titleFrom = ""
	}
	if titleFrom != "" {
		if q, err := s.Quota.Status(ctx, userID); err == nil && q.Remaining == 0 {
			titleFrom = ""
		}
	}
	conv, err := s.Conversations.Create(ctx, userID, titleFrom)
	if err != nil {
		return nil, nil, err
	}
	sum := &ConversationSummary{ID: conv.ID, Title: conv.Title, CreatedAt: conv.CreatedAt, UpdatedAt: conv.UpdatedAt}
	if opening == "" {
		return sum, nil, nil
	}

	reply, err := s.Send(ctx, SendRequest{
		Caller:         Caller{UserID: userID},
		ConversationID: conv.ID,
		Text:           opening,
	})
	return sum, reply, err
}

// ResetSession drops the caller's conversational context.
func (s *ChatService) ResetSession(ctx context.Context, c Caller) error {
	return s.History.Clear(ctx, c.SessionID())
}

func (s *ChatService) consume(ctx context.Context, c Caller) (Quota, error) {
	if c.IsGuest() {
		if s.Guests == nil {
			return Quota{}, errors.New("guest allowance not configured")
		}
		return s.Guests.TryConsume(c.GuestID), nil
	}
	return s.Quota.TryConsume(ctx, c.UserID)
}

func (s *ChatService) complete(ctx context.Context, prompt []llm.Message) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := s.Provider.Complete(ctx, prompt, s.Params)
	observability.ObserveProvider(s.Provider.Name(), time.Since(start), err == nil)
	return out, err
}

// BuildPrompt assembles the provider input: the persona, the opening
// assistant turn, the stored turns in order, then the new user message.
func BuildPrompt(past []history.Turn, text string) []llm.Message {
	msgs := make([]llm.Message, 0, len(past)+3)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleSystem, Content: SystemPersona},
		llm.Message{Role: llm.RoleAssistant, Content: OpeningTurn},
	)
	for _, t := range past {
		role := llm.RoleUser
		if t.Role == history.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: text})
}
