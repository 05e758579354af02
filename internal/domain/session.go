package domain

import "time"

// Stage is the current phase of the dialogue state machine.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageCollecting Stage = "collecting"
	StageConfirm    Stage = "confirm"
)

// Normalize maps an absent or unknown stage to idle.
func (s Stage) Normalize() Stage {
	switch s {
	case StageCollecting, StageConfirm:
		return s
	default:
		return StageIdle
	}
}

// HostVariant identifies which product variant a conversation belongs to.
type HostVariant string

const (
	HostStudio  HostVariant = "studio"
	HostExpress HostVariant = "express"
)

// Valid reports whether v is a known variant.
func (v HostVariant) Valid() bool {
	return v == HostStudio || v == HostExpress
}

// ToneProfile names a voice preset applied to response templates.
type ToneProfile string

const (
	ToneNeutral  ToneProfile = "neutral"
	ToneFriendly ToneProfile = "friendly"
	ToneFormal   ToneProfile = "formal"
)

func (t ToneProfile) Valid() bool {
	return t == ToneNeutral || t == ToneFriendly || t == ToneFormal
}

// DefaultTone returns the tone a new session starts with on the given host.
func DefaultTone(host HostVariant) ToneProfile {
	if host == HostExpress {
		return ToneFriendly
	}
	return ToneFormal
}

// One-shot flag keys stored in Session.Flags.
const (
	FlagWelcomed          = "welcomed"
	FlagOwnPromptExpected = "own_prompt_expected"
	FlagCorrecting        = "correcting"
)

// Session is the per-conversation mutable state. Only the dialogue engine
// mutates it; stores persist it as-is.
type Session struct {
	ID            string
	Host          HostVariant
	BrandID       string
	UserID        string
	Stage         Stage
	Draft         Draft
	Brief         *Brief
	Questions     int
	Tone          ToneProfile
	LastIntent    Intent
	PendingSlot   Slot
	LastOrderID   string
	LastJobID     string
	LastQueueSize *int
	Flags         map[string]bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiresAt     time.Time
}

// NewSession builds a fresh idle session.
func NewSession(id string, host HostVariant, brandID, userID string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		Host:      host,
		BrandID:   brandID,
		UserID:    userID,
		Stage:     StageIdle,
		Tone:      DefaultTone(host),
		Flags:     map[string]bool{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session is past its TTL at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Flag reports whether a one-shot flag is set.
func (s *Session) Flag(key string) bool {
	return s.Flags[key]
}

// SetFlag sets or clears a one-shot flag.
func (s *Session) SetFlag(key string, on bool) {
	if !on {
		delete(s.Flags, key)
		return
	}
	if s.Flags == nil {
		s.Flags = map[string]bool{}
	}
	s.Flags[key] = true
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Draft = s.Draft.Clone()
	if s.Brief != nil {
		b := *s.Brief
		out.Brief = &b
	}
	if s.LastQueueSize != nil {
		n := *s.LastQueueSize
		out.LastQueueSize = &n
	}
	out.Flags = make(map[string]bool, len(s.Flags))
	for k, v := range s.Flags {
		out.Flags[k] = v
	}
	return &out
}
