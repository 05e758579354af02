// Package jobs talks to the generation queue: it enqueues briefs and looks
// up the assets produced for an order.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"brief-agent/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
	maxBody        = 1 << 20
	tokenParam     = "/jobs-api-token"
)

type enqueueRequest struct {
	Brief domain.Brief `json:"brief"`
}

type enqueueResponse struct {
	OrderID   string `json:"orderId"`
	JobID     string `json:"jobId"`
	QueueSize *int   `json:"queueSize"`
}

type assetPayload struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId"`
	PreviewURL  string `json:"previewUrl"`
	DownloadURL string `json:"downloadUrl"`
}

type searchResponse struct {
	Assets []assetPayload `json:"assets"`
}

// Getter is satisfied by *paramstore.Client.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// StatusError is returned for any non-2xx answer from the jobs API.
type StatusError struct {
	Code     int
	Method   string
	Endpoint string
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jobs: %s %s returned %d: %s", e.Method, e.Endpoint, e.Code, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.Code
}

// Client is the jobs API client. It serves as both the dispatcher and the
// asset searcher of the dialogue engine.
type Client struct {
	base   string
	hc     *http.Client
	params Getter
	prefix string

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a Client for the jobs API at baseURL. The bearer token
// is read from "<paramPrefix>/jobs-api-token" on first use and kept for the
// lifetime of the process.
func NewClient(params Getter, paramPrefix, baseURL string, opts ...Option) (*Client, error) {
	if params == nil {
		return nil, errors.New("jobs: paramstore getter must not be nil")
	}
	prefix := strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if prefix == "" {
		return nil, errors.New("jobs: parameter prefix must not be empty")
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("jobs: base URL must not be empty")
	}
	c := &Client{
		base:   base,
		hc:     &http.Client{Timeout: defaultTimeout},
		params: params,
		prefix: prefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.tokenOnce.Do(func() {
		c.token, c.tokenErr = readToken(ctx, c.params, c.prefix+tokenParam)
	})
	return c.token, c.tokenErr
}

// endpoint accepts base URLs with or without the trailing /v1.
func endpoint(base, path string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	return base + path
}

// Enqueue submits the brief as one generation job. Each call carries a fresh
// idempotency key; retries are left to the user.
func (c *Client) Enqueue(ctx context.Context, brief domain.Brief) (domain.JobOrder, error) {
	if brief.IsZero() {
		return domain.JobOrder{}, errors.New("jobs: brief must not be empty")
	}
	body, err := json.Marshal(enqueueRequest{Brief: brief})
	if err != nil {
		return domain.JobOrder{}, fmt.Errorf("jobs: marshal request: %w", err)
	}

	var out enqueueResponse
	header := http.Header{"Idempotency-Key": []string{newUUID()}}
	if err := c.call(ctx, http.MethodPost, endpoint(c.base, "/jobs"), header, body, &out); err != nil {
		return domain.JobOrder{}, fmt.Errorf("jobs: enqueue failed: %w", err)
	}
	if strings.TrimSpace(out.OrderID) == "" {
		return domain.JobOrder{}, errors.New("jobs: enqueue response missing orderId")
	}
	return domain.JobOrder{OrderID: out.OrderID, JobID: out.JobID, QueueSize: out.QueueSize}, nil
}

// Search lists assets of a brand, narrowed to one order when orderID is set.
func (c *Client) Search(ctx context.Context, brandID, orderID string) ([]domain.Asset, error) {
	if strings.TrimSpace(brandID) == "" {
		return nil, errors.New("jobs: brand id must not be empty")
	}
	q := url.Values{"brandId": []string{brandID}}
	if orderID != "" {
		q.Set("orderId", orderID)
	}

	var out searchResponse
	if err := c.call(ctx, http.MethodGet, endpoint(c.base, "/assets")+"?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("jobs: search failed: %w", err)
	}
	assets := make([]domain.Asset, 0, len(out.Assets))
	for _, a := range out.Assets {
		assets = append(assets, domain.Asset(a))
	}
	return assets, nil
}

// call performs one authenticated request and decodes a JSON answer into out.
func (c *Client) call(ctx context.Context, method, target string, header http.Header, body []byte, out any) error {
	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &StatusError{Code: res.StatusCode, Method: method, Endpoint: req.URL.Path, Body: string(msg)}
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readToken expects the parameter to hold {"token": "..."}.
func readToken(ctx context.Context, params Getter, name string) (string, error) {
	if params == nil {
		return "", errors.New("jobs: paramstore getter is nil")
	}
	raw, err := params.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("jobs: read token parameter: %w", err)
	}
	var v struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return "", fmt.Errorf("jobs: unmarshal token parameter: %w", err)
	}
	if strings.TrimSpace(v.Token) == "" {
		return "", errors.New("jobs: API token is empty")
	}
	return v.Token, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
