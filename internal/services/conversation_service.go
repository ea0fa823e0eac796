// Package services – ConversationService
//
// This file implements ConversationService, which owns persisted
// conversations and their messages. Every read and write is scoped to the
// owning user; a conversation that belongs to someone else is reported as
// ErrConversationNotFound so callers cannot discover other users' conversations.
//
// New conversations may be titled by the completion provider from their
// opening message. Title generation never fails creation: any provider error
// or unusable answer falls back to DefaultTitle.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-mindcare-backend/internal/domain"
	"github.com/tbourn/go-mindcare-backend/internal/llm"
	"github.com/tbourn/go-mindcare-backend/internal/repo"
	"github.com/tbourn/go-mindcare-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTitle names a conversation whose title could not be generated.
	DefaultTitle = "Cuộc trò chuyện mới"

	// titleInputRunes caps the opening message sent for title generation.
	titleInputRunes = 200
	// titleMaxRunes caps stored titles; longer ones end in "...".
	titleMaxRunes = 50

	titlePrompt = "Hãy đặt một tiêu đề ngắn gọn (tối đa 8 từ) bằng tiếng Việt cho cuộc trò chuyện bắt đầu bằng tin nhắn của người dùng. Chỉ trả lời bằng tiêu đề, không thêm dấu ngoặc kép hay giải thích."
)

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	LastMessage *domain.Message `json:"last_message,omitempty"`
}

// ConversationDetail is a conversation with its live messages, oldest first.
type ConversationDetail struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []domain.Message `json:"messages"`
}

// ConversationService coordinates conversation persistence.
type ConversationService struct {
	DB *gorm.DB

	// Provider titles new conversations. Nil disables generation.
	Provider llm.Provider
	// Params are the sampling parameters for title requests.
	Params llm.Params
	// Timeout bounds one title request; zero means no extra deadline.
	Timeout time.Duration

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// NewConversationService returns a ConversationService that titles
// conversations with p (which may be nil).
func NewConversationService(db *gorm.DB, p llm.Provider, params llm.Params, timeout time.Duration) *ConversationService {
	return &ConversationService{DB: db, Provider: p, Params: params, Timeout: timeout}
}

func (s *ConversationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create inserts a conversation for userID. When opening is not blank the
// title is generated from it; otherwise DefaultTitle is used.
func (s *ConversationService) Create(ctx context.Context, userID, opening string) (*domain.Conversation, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	title := DefaultTitle
	if strings.TrimSpace(opening) != "" {
		title = s.GenerateTitle(ctx, opening)
	}
	return repo.CreateConversation(ctx, s.DB, userID, title, s.now())
}

// GenerateTitle asks the provider for a short title for a conversation that
// opens with text. It always returns a usable title.
func (s *ConversationService) GenerateTitle(ctx context.Context, text string) string {
	text = utils.TruncateRunes(strings.TrimSpace(text), titleInputRunes)
	if text == "" || s.Provider == nil {
		return DefaultTitle
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.Provider.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: titlePrompt},
		{Role: llm.RoleUser, Content: text},
	}, s.Params)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("provider", s.Provider.Name()).Msg("title generation failed")
		return DefaultTitle
	}
	return cleanTitle(out)
}

// cleanTitle turns a raw provider answer into a stored title.
func cleanTitle(raw string) string {
	t := utils.CollapseSpace(raw)
	t = strings.Trim(t, "\"'“”‘’`*# ")
	t = strings.TrimPrefix(t, "Tiêu đề:")
	t = strings.TrimSpace(t)
	if t == "" {
		return DefaultTitle
	}
	return utils.Ellipsize(t, titleMaxRunes)
}

// Get returns a live conversation owned by userID.
func (s *ConversationService) Get(ctx context.Context, id, userID string) (*domain.Conversation, error) {
	c, err := repo.GetConversation(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns a page of userID's live conversations, newest first, each
// annotated with its latest live message, together with the total count.
// pageSize <= 0 returns every conversation.
func (s *ConversationService) List(ctx context.Context, userID string, page, pageSize int) ([]ConversationSummary, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	total, err := repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []ConversationSummary{}, 0, nil
	}

	offset := 0
	if pageSize > 0 {
		_, pageSize, offset = utils.Page(page, pageSize, pageSize, 0)
	}
	convs, err := repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	latest, err := repo.LatestMessages(ctx, s.DB, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		sum := ConversationSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
		if m, ok := latest[c.ID]; ok {
			sum.LastMessage = &m
		}
		out = append(out, sum)
	}
	return out, total, nil
}

// Detail returns a conversation with all its live messages, oldest first.
func (s *ConversationService) Detail(ctx context.Context, id, userID string) (*ConversationDetail, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Detail",
		trace.WithAttributes(
			attribute.String("conversation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	c, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := repo.ListMessages(ctx, s.DB, c.ID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  msgs,
	}, nil
}

// Delete soft-deletes a conversation. Deleting it again is a no-op.
func (s *ConversationService) Delete(ctx context.Context, id, userID string) error {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("conversation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := repo.SoftDeleteConversation(ctx, s.DB, id, userID, s.now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// AppendExchange stores a user message and the assistant reply to it. The
// user message carries the crisis flag; the reply is always stamped after
// the user message so detail order matches insertion order.
func (s *ConversationService) AppendExchange(ctx context.Context, id, userID, userText, reply string, crisis bool, sentAt, repliedAt time.Time) ([]domain.Message, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "AppendExchange",
		trace.WithAttributes(
			attribute.String("conversation.id", id),
			attribute.String("user.id", userID),
			attribute.Bool("crisis", crisis),
		),
	)
	defer span.End()

	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	if !repliedAt.After(sentAt) {
		repliedAt = sentAt.Add(time.Millisecond)
	}
	return repo.CreateMessages(ctx, s.DB, id,
		repo.NewMessage{SenderType: domain.SenderUser, Content: userText, IsCrisis: crisis, SentAt: sentAt},
		repo.NewMessage{SenderType: domain.SenderAssistant, Content: reply, SentAt: repliedAt},
	)
}

// Stats returns the live conversation count and latest update time for
// userID, used to build list ETags.
func (s *ConversationService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.ConversationsStats(ctx, s.DB, userID)
}
