package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"brief-agent/internal/dialogue"
	"brief-agent/internal/domain"
	"brief-agent/internal/host"
)

const (
	defaultMaxTextLength = 2000
	lockStripes          = 64
)

type SessionStore interface {
	Create(ctx context.Context, host domain.HostVariant, brandID, userID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
}

type TurnHandler interface {
	HandleTurn(ctx context.Context, in dialogue.TurnInput, tc *dialogue.TurnContext)
}

// ChatService runs one user turn end to end: it loads or opens the session,
// hands the message to the dialogue engine and persists the result.
type ChatService struct {
	store      SessionStore
	engine     TurnHandler
	hosts      *host.Resolver
	maxTextLen int

	locks [lockStripes]sync.Mutex
}

type ChatInput struct {
	SessionID string
	BrandID   string
	UserID    string
	Text      string
	Choice    domain.Choice
	// Tone overrides the session's tone profile when set to a known value.
	Tone domain.ToneProfile
	Meta host.RequestMeta
}

type ChatOutput struct {
	SessionID string
	Stage     domain.Stage
	Replies   []domain.Reply
}

func NewChatService(store SessionStore, engine TurnHandler, hosts *host.Resolver, maxTextLen int) (*ChatService, error) {
	if store == nil {
		return nil, errors.New("usecase: session store must not be nil")
	}
	if engine == nil {
		return nil, errors.New("usecase: turn handler must not be nil")
	}
	if hosts == nil {
		hosts = host.NewResolver(nil)
	}
	if maxTextLen <= 0 {
		maxTextLen = defaultMaxTextLength
	}
	return &ChatService{
		store:      store,
		engine:     engine,
		hosts:      hosts,
		maxTextLen: maxTextLen,
	}, nil
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	text := strings.TrimSpace(in.Text)
	choice := domain.Choice(strings.TrimSpace(string(in.Choice)))
	if text == "" && choice == "" {
		return ChatOutput{}, invalidInput("empty_text")
	}
	if utf8.RuneCountInString(text) > s.maxTextLen {
		return ChatOutput{}, invalidInput("text_too_long")
	}
	brandID := strings.TrimSpace(in.BrandID)
	userID := strings.TrimSpace(in.UserID)
	sessionID := strings.TrimSpace(in.SessionID)

	var sess *domain.Session
	if sessionID == "" {
		if brandID == "" {
			return ChatOutput{}, invalidInput("missing_brand_id")
		}
		created, err := s.store.Create(ctx, s.hosts.Resolve(in.Meta), brandID, userID)
		if err != nil {
			return ChatOutput{}, internal("session_create_error", err)
		}
		sessionID = created.ID
		sess = created
	}

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if sess == nil {
		loaded, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return ChatOutput{}, internal("session_read_error", err)
		}
		if loaded == nil {
			return ChatOutput{}, &Error{Code: ErrorSessionNotFound, Reason: "session_expired_or_unknown"}
		}
		sess = loaded
	}
	if in.Tone.Valid() {
		sess.Tone = in.Tone
	}

	before := sess.Draft.Clone()
	var replies []domain.Reply
	s.engine.HandleTurn(ctx, dialogue.TurnInput{Text: text, Choice: choice}, &dialogue.TurnContext{
		Meta:    in.Meta,
		BrandID: brandID,
		UserID:  userID,
		Session: sess,
		Reply: func(r domain.Reply) {
			replies = append(replies, r)
		},
	})

	if err := s.store.Save(ctx, sess); err != nil {
		return ChatOutput{}, internal("session_write_error", err)
	}
	delta, err := dialogue.DraftDelta(before, sess.Draft)
	if err != nil {
		slog.Warn("draft delta unavailable", "session_id", sess.ID, "err", err)
	}
	slog.Info("turn saved", "session_id", sess.ID, "stage", sess.Stage, "replies", len(replies), "draft_delta", delta)

	return ChatOutput{
		SessionID: sess.ID,
		Stage:     sess.Stage,
		Replies:   replies,
	}, nil
}

func (s *ChatService) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}
