package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"brief-agent/internal/dialogue"
	"brief-agent/internal/domain"
	"brief-agent/internal/host"
	"brief-agent/internal/repository"
)

type mockDispatcher struct {
	order    domain.JobOrder
	err      error
	received []domain.Brief
}

func (m *mockDispatcher) Enqueue(_ context.Context, b domain.Brief) (domain.JobOrder, error) {
	m.received = append(m.received, b)
	return m.order, m.err
}

type mockAssets struct{}

func (mockAssets) Search(_ context.Context, _, _ string) ([]domain.Asset, error) {
	return nil, nil
}

type mockStore struct {
	createErr error
	getErr    error
	saveErr   error
	session   *domain.Session
	saved     *domain.Session
}

func (m *mockStore) Create(_ context.Context, h domain.HostVariant, brandID, userID string) (*domain.Session, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return domain.NewSession("sess-new", h, brandID, userID, time.Now(), time.Hour), nil
}

func (m *mockStore) Get(_ context.Context, _ string) (*domain.Session, error) {
	return m.session, m.getErr
}

func (m *mockStore) Save(_ context.Context, s *domain.Session) error {
	m.saved = s
	return m.saveErr
}

// countingHandler records turns and checks that none overlap.
type countingHandler struct {
	mu       sync.Mutex
	inflight map[string]bool
	overlap  bool
	turns    int
}

func (c *countingHandler) HandleTurn(_ context.Context, _ dialogue.TurnInput, tc *dialogue.TurnContext) {
	id := tc.Session.ID
	c.mu.Lock()
	if c.inflight[id] {
		c.overlap = true
	}
	c.inflight[id] = true
	c.mu.Unlock()

	time.Sleep(2 * time.Millisecond)
	tc.Session.Questions++

	c.mu.Lock()
	delete(c.inflight, id)
	c.turns++
	c.mu.Unlock()
	tc.Reply(domain.Reply{Text: "ok"})
}

func newTestService(t *testing.T, d *mockDispatcher) (*ChatService, *repository.MemoryStore) {
	t.Helper()
	engine, err := dialogue.NewEngine(d, mockAssets{}, nil,
		dialogue.WithOrderLinks(map[domain.HostVariant]string{domain.HostStudio: "https://studio.example.com"}),
	)
	require.NoError(t, err)
	store := repository.NewMemoryStore(time.Hour, 100)
	svc, err := NewChatService(store, engine, host.NewResolver([]string{"go.example.com"}), 0)
	require.NoError(t, err)
	return svc, store
}

func TestNewChatService_Validation(t *testing.T) {
	_, err := NewChatService(nil, &countingHandler{}, nil, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "store")

	_, err = NewChatService(&mockStore{}, nil, nil, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "turn handler")
}

func TestChat_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t, &mockDispatcher{})

	cases := []struct {
		name   string
		in     ChatInput
		reason string
	}{
		{"empty", ChatInput{BrandID: "b1", Text: "   "}, "empty_text"},
		{"too long", ChatInput{BrandID: "b1", Text: strings.Repeat("a", defaultMaxTextLength+1)}, "text_too_long"},
		{"no brand on new session", ChatInput{Text: "bonjour"}, "missing_brand_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), tc.in)
			var uerr *Error
			require.True(t, errors.As(err, &uerr))
			require.Equal(t, ErrorInvalidInput, uerr.Code)
			require.Equal(t, tc.reason, uerr.Reason)
		})
	}
}

func TestChat_UnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &mockDispatcher{})
	_, err := svc.Chat(context.Background(), ChatInput{SessionID: "gone", Text: "bonjour"})
	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	require.Equal(t, ErrorSessionNotFound, uerr.Code)
}

func TestChat_StoreErrors(t *testing.T) {
	boom := errors.New("store down")

	svc, err := NewChatService(&mockStore{createErr: boom}, &countingHandler{inflight: map[string]bool{}}, nil, 0)
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), ChatInput{BrandID: "b1", Text: "bonjour"})
	var uerr *Error
	require.True(t, errors.As(err, &uerr))
	require.Equal(t, ErrorInternal, uerr.Code)
	require.Equal(t, "session_create_error", uerr.Reason)
	require.ErrorIs(t, err, boom)

	svc, err = NewChatService(&mockStore{getErr: boom}, &countingHandler{inflight: map[string]bool{}}, nil, 0)
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), ChatInput{SessionID: "s1", Text: "bonjour"})
	require.True(t, errors.As(err, &uerr))
	require.Equal(t, "session_read_error", uerr.Reason)

	svc, err = NewChatService(&mockStore{saveErr: boom}, &countingHandler{inflight: map[string]bool{}}, nil, 0)
	require.NoError(t, err)
	_, err = svc.Chat(context.Background(), ChatInput{BrandID: "b1", Text: "bonjour"})
	require.True(t, errors.As(err, &uerr))
	require.Equal(t, "session_write_error", uerr.Reason)
}

func TestChat_NewSessionFollowsHostVariant(t *testing.T) {
	svc, store := newTestService(t, &mockDispatcher{})

	out, err := svc.Chat(context.Background(), ChatInput{
		BrandID: "brand-1",
		Text:    "Je veux un carrousel",
		Meta:    host.RequestMeta{Host: "go.example.com"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionID)
	require.Equal(t, domain.StageCollecting, out.Stage)
	require.Len(t, out.Replies, 1)
	require.Equal(t, "Quel est l'objectif de ta campagne ?", out.Replies[0].Text)
	require.Len(t, out.Replies[0].QuickReplies, 2)

	saved, err := store.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, domain.HostExpress, saved.Host)
	require.Equal(t, domain.ToneFriendly, saved.Tone)
	require.Equal(t, domain.KindCarousel, saved.Draft.Kind)

	out, err = svc.Chat(context.Background(), ChatInput{
		BrandID: "brand-1",
		Text:    "Je veux un carrousel",
		Meta:    host.RequestMeta{Host: "studio.example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "Quel est l'objectif de votre campagne ?", out.Replies[0].Text)
}

func TestChat_ToneOverride(t *testing.T) {
	svc, store := newTestService(t, &mockDispatcher{})

	out, err := svc.Chat(context.Background(), ChatInput{
		BrandID: "brand-1",
		Text:    "Je veux un carrousel",
		Tone:    domain.ToneNeutral,
		Meta:    host.RequestMeta{Host: "studio.example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, "Quel est l'objectif de ta campagne ?", out.Replies[0].Text)

	saved, err := store.Get(context.Background(), out.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.ToneNeutral, saved.Tone)
}

func TestChat_FullBriefToLaunch(t *testing.T) {
	queue := 2
	d := &mockDispatcher{order: domain.JobOrder{OrderID: "ord-9", JobID: "job-9", QueueSize: &queue}}
	svc, store := newTestService(t, d)
	ctx := context.Background()

	out, err := svc.Chat(ctx, ChatInput{
		BrandID: "brand-1",
		Text:    "Je veux un carrousel de 5 slides pour l'acquisition, format 9:16, style minimal",
		Tone:    domain.ToneNeutral,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StageConfirm, out.Stage)
	require.Contains(t, out.Replies[0].Text, "• Slides : 5")
	require.Contains(t, out.Replies[0].Text, "• Format : 9:16")
	require.Len(t, out.Replies[0].QuickReplies, 2)

	id := out.SessionID
	out, err = svc.Chat(ctx, ChatInput{SessionID: id, Choice: domain.ChoiceLaunch, Text: "Oui, lancer"})
	require.NoError(t, err)
	require.Equal(t, domain.StageIdle, out.Stage)
	require.Contains(t, out.Replies[0].Text, "ord-9")
	require.Contains(t, out.Replies[0].Text, "2 création(s)")
	require.Len(t, d.received, 1)

	saved, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "ord-9", saved.LastOrderID)
	require.Nil(t, saved.Brief)
}

func TestChat_SerializesTurnsPerSession(t *testing.T) {
	store := repository.NewMemoryStore(time.Hour, 10)
	sess, err := store.Create(context.Background(), domain.HostStudio, "brand-1", "")
	require.NoError(t, err)

	h := &countingHandler{inflight: map[string]bool{}}
	svc, err := NewChatService(store, h, nil, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Chat(context.Background(), ChatInput{SessionID: sess.ID, Text: "bonjour"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.False(t, h.overlap)
	require.Equal(t, 8, h.turns)
	saved, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Equal(t, 8, saved.Questions)
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, ErrorInvalidInput, CodeOf(fmt.Errorf("wrapped: %w", invalidInput("empty_text"))))
	require.Equal(t, ErrorInternal, CodeOf(errors.New("plain")))
	require.Equal(t, ErrorInternal, CodeOf(nil))

	err := internal("session_read_error", errors.New("boom"))
	require.Equal(t, "usecase: INTERNAL_ERROR: session_read_error: boom", err.Error())
	require.ErrorContains(t, err, "boom")
}
