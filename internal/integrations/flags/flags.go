// Package flags resolves per-kind feature flags from Parameter Store.
package flags

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"brief-agent/internal/domain"
)

const defaultTTL = time.Minute

// Lookup is satisfied by *paramstore.Client.
type Lookup interface {
	Lookup(ctx context.Context, name string) (string, bool, error)
}

type entry struct {
	enabled bool
	fetched time.Time
}

// Client reads "<prefix>/flags/<kind>" and caches the answer for a short
// while. Absent, unreadable or unrecognised values mean enabled.
type Client struct {
	params Lookup
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[domain.Kind]entry
}

// New creates a Client. A non-positive ttl uses one minute.
func New(params Lookup, paramPrefix string, ttl time.Duration) (*Client, error) {
	if params == nil {
		return nil, errors.New("flags: parameter lookup must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("flags: parameter prefix must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Client{
		params: params,
		prefix: paramPrefix,
		ttl:    ttl,
		now:    time.Now,
		cache:  map[domain.Kind]entry{},
	}, nil
}

// Enabled reports whether creations of kind may be launched.
func (c *Client) Enabled(ctx context.Context, kind domain.Kind) bool {
	now := c.now()
	c.mu.RLock()
	e, ok := c.cache[kind]
	c.mu.RUnlock()
	if ok && now.Sub(e.fetched) < c.ttl {
		return e.enabled
	}

	raw, found, err := c.params.Lookup(ctx, c.prefix+"/flags/"+string(kind))
	if err != nil {
		slog.Warn("feature flag lookup failed, defaulting to enabled", "kind", kind, "err", err)
		return true
	}
	enabled := true
	if found {
		enabled = Parse(raw)
	}
	c.mu.Lock()
	c.cache[kind] = entry{enabled: enabled, fetched: now}
	c.mu.Unlock()
	return enabled
}

// Parse interprets a flag value. Only explicit "off" spellings disable.
func Parse(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "off", "false", "0", "disabled", "no":
		return false
	default:
		return true
	}
}

// Static is a fixed flag set, e.g. for local runs. Kinds not listed are enabled.
type Static map[domain.Kind]bool

func (s Static) Enabled(_ context.Context, kind domain.Kind) bool {
	enabled, ok := s[kind]
	return !ok || enabled
}
