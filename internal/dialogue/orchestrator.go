package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"brief-agent/internal/domain"
	"brief-agent/internal/host"
)

// DefaultMaxQuestions is how many slot questions are asked before the
// assistant stops asking and lists what is still missing.
const DefaultMaxQuestions = 5

// Dispatcher enqueues a finalized brief on the generation queue.
type Dispatcher interface {
	Enqueue(ctx context.Context, brief domain.Brief) (domain.JobOrder, error)
}

// AssetSearcher looks up generated assets for an order.
type AssetSearcher interface {
	Search(ctx context.Context, brandID, orderID string) ([]domain.Asset, error)
}

// FlagSource reports whether a creation kind is currently enabled.
type FlagSource interface {
	Enabled(ctx context.Context, kind domain.Kind) bool
}

// TurnInput is one user message. Choice is set when the user tapped a quick
// reply; Text then carries its label.
type TurnInput struct {
	Text   string
	Choice domain.Choice
}

// TurnContext carries the live session and the reply sink for one turn.
// Callers must not run two turns on the same session concurrently.
type TurnContext struct {
	Meta    host.RequestMeta
	BrandID string
	UserID  string
	Session *domain.Session
	Reply   func(domain.Reply)
}

// Engine drives the brief-collection dialogue.
type Engine struct {
	dispatcher   Dispatcher
	assets       AssetSearcher
	flags        FlagSource
	hosts        *host.Resolver
	tones        *ToneRenderer
	orderLinks   map[domain.HostVariant]string
	maxQuestions int
}

type Option func(*Engine)

func WithToneRenderer(r *ToneRenderer) Option {
	return func(e *Engine) {
		e.tones = r
	}
}

// WithHostResolver lets the engine pick a variant for sessions that have
// none yet, from the turn's request metadata.
func WithHostResolver(r *host.Resolver) Option {
	return func(e *Engine) {
		e.hosts = r
	}
}

// WithOrderLinks sets the app base URL used for order deep links, per host.
func WithOrderLinks(links map[domain.HostVariant]string) Option {
	return func(e *Engine) {
		for variant, base := range links {
			e.orderLinks[variant] = strings.TrimRight(strings.TrimSpace(base), "/")
		}
	}
}

func WithMaxQuestions(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxQuestions = n
		}
	}
}

// NewEngine builds an Engine. Flags may be nil, in which case every kind is
// enabled.
func NewEngine(d Dispatcher, a AssetSearcher, f FlagSource, opts ...Option) (*Engine, error) {
	if d == nil {
		return nil, errors.New("dialogue: dispatcher must not be nil")
	}
	if a == nil {
		return nil, errors.New("dialogue: asset searcher must not be nil")
	}
	e := &Engine{
		dispatcher:   d,
		assets:       a,
		flags:        f,
		orderLinks:   map[domain.HostVariant]string{},
		maxQuestions: DefaultMaxQuestions,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tones == nil {
		e.tones = DefaultToneRenderer()
	}
	return e, nil
}

// turn bundles per-turn state so handlers can reply in the session's tone.
type turn struct {
	ctx     context.Context
	in      TurnInput
	session *domain.Session
	sink    func(domain.Reply)
	tones   *ToneRenderer
}

func (t *turn) reply(template string, args []any, quick ...domain.QuickReply) {
	text := t.tones.Render(template, t.session.Tone)
	if len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	t.sink(domain.Reply{Text: text, QuickReplies: quick})
}

// HandleTurn processes one user message, mutates the session and emits the
// reply. Every failure is turned into a reply; nothing is returned.
func (e *Engine) HandleTurn(ctx context.Context, in TurnInput, tc *TurnContext) {
	if tc == nil || tc.Session == nil || tc.Reply == nil {
		slog.Error("dialogue: turn context incomplete")
		return
	}
	s := tc.Session
	s.Stage = s.Stage.Normalize()
	if tc.BrandID != "" {
		s.BrandID = tc.BrandID
	}
	if tc.UserID != "" {
		s.UserID = tc.UserID
	}
	if !s.Host.Valid() {
		s.Host = domain.HostStudio
		if e.hosts != nil {
			s.Host = e.hosts.Resolve(tc.Meta)
		}
	}
	if s.Tone == "" {
		s.Tone = domain.DefaultTone(s.Host)
	}
	in.Text = strings.TrimSpace(in.Text)
	t := &turn{ctx: ctx, in: in, session: s, sink: tc.Reply, tones: e.tones}

	switch {
	case isStatusQuery(in):
		e.handleStatus(t)
		return
	case isCancel(in):
		resetBrief(s)
		t.reply(msgCancelled, nil)
		return
	case s.Brief != nil && isAffirmation(in):
		e.launch(t)
		return
	case (s.Stage == domain.StageConfirm || s.Brief != nil) && isModify(in):
		if s.Brief != nil {
			s.Draft = s.Brief.Draft()
		}
		s.Stage = domain.StageCollecting
		s.Brief = nil
		s.PendingSlot = domain.SlotNone
		s.SetFlag(domain.FlagCorrecting, true)
		t.reply(msgModify, nil)
		return
	}

	e.collect(t)
}

func (e *Engine) collect(t *turn) {
	s := t.session
	intent := Classify(t.in.Text, s.LastIntent)
	if intent.IsCreation() {
		s.LastIntent = intent
	}

	kind, ok := intent.Kind()
	if !ok {
		kind = s.Draft.Kind
	}
	if kind == "" {
		template := msgCapability
		if !s.Flag(domain.FlagWelcomed) {
			template = msgWelcome + msgCapability
			s.SetFlag(domain.FlagWelcomed, true)
		}
		t.reply(template, nil)
		return
	}
	if e.flags != nil && !e.flags.Enabled(t.ctx, kind) {
		slog.Info("creation kind disabled", "session_id", s.ID, "kind", kind)
		t.reply(msgUnavailable, []any{kindLabel(kind)})
		return
	}

	promptBefore := s.Draft.Prompt
	d := UpdateDraft(t.in, s, intent)
	s.SetFlag(domain.FlagOwnPromptExpected, false)
	s.SetFlag(domain.FlagCorrecting, false)
	if wantsSuggestion(t.in) && (promptBefore == "" || s.PendingSlot == domain.SlotPrompt) {
		d.Prompt = SuggestPrompt(d.Kind, d.Objective, d.Format)
	}
	s.Draft = d

	if wantsOwnPrompt(t.in) && promptBefore == "" && d.Prompt == "" {
		s.Stage = domain.StageCollecting
		s.PendingSlot = domain.SlotPrompt
		s.SetFlag(domain.FlagOwnPromptExpected, true)
		t.reply(msgAskOwnPrompt, nil)
		return
	}

	if missing := d.Missing(); len(missing) > 0 {
		s.Stage = domain.StageCollecting
		if s.Questions >= e.maxQuestions {
			s.PendingSlot = domain.SlotNone
			t.reply(msgStillMissing, []any{slotList(missing)})
			return
		}
		next := missing[0]
		template, args, quick := question(next, d.Kind)
		s.Questions++
		s.PendingSlot = next
		t.reply(template, args, quick...)
		return
	}

	brief, err := d.Finalize()
	if err != nil {
		var verr *domain.ValidationError
		fields := "le brief"
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			names := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				names = append(names, f.Field)
			}
			fields = strings.Join(names, ", ")
		}
		slog.Warn("brief validation failed", "session_id", s.ID, "err", err)
		s.Stage = domain.StageCollecting
		s.PendingSlot = domain.SlotNone
		t.reply(msgNeedDetail, []any{fields})
		return
	}
	s.Brief = &brief
	s.Questions = 0
	s.PendingSlot = domain.SlotNone
	s.Stage = domain.StageConfirm
	t.reply(msgRecap, []any{recap(brief)}, qrLaunch, qrModify)
}

// resetBrief drops everything collected for the current brief.
func resetBrief(s *domain.Session) {
	s.Draft = domain.Draft{}
	s.Brief = nil
	s.Questions = 0
	s.PendingSlot = domain.SlotNone
	s.LastIntent = domain.IntentNone
	s.SetFlag(domain.FlagOwnPromptExpected, false)
	s.SetFlag(domain.FlagCorrecting, false)
	s.Stage = domain.StageIdle
}
