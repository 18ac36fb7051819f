// Package monkeytype is the HTTP client for the Monkeytype API, the
// upstream source of test results.
//
// A Client is bound to exactly one ApeKey for its whole lifetime and holds
// no other state. Sync builds a fresh client per account per pass, so
// concurrent multi-account syncs can never observe each other's credential.
package monkeytype

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
)

const (
	DefaultBaseURL = "https://api.monkeytype.com"

	// ResultsPageSize is the upstream page size for GET /results. A page
	// shorter than this is the last one.
	ResultsPageSize = 1000

	// statusInactiveKey is the non-standard status Monkeytype answers with
	// when an ApeKey exists but is disabled or revoked.
	statusInactiveKey = 471

	defaultTimeout = 15 * time.Second
)

// ApeKeys are 76 characters of base64url.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{76}$`)

// ValidKeyFormat reports whether the key has the expected token shape.
// Lexical only; a well-formed key can still be rejected by the server.
func ValidKeyFormat(apeKey string) bool {
	return keyPattern.MatchString(apeKey)
}

type Client struct {
	baseURL string
	apeKey  string
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

// New builds a client bound to one ApeKey. A malformed key fails here,
// before any network call is attempted.
func New(apeKey string, opts ...Option) (*Client, error) {
	if !ValidKeyFormat(apeKey) {
		return nil, apperror.InvalidKey("ape key is malformed")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apeKey:  apeKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is Monkeytype's standard response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// get performs an authenticated GET and decodes the data field into out.
// Status 471 maps to ErrInvalidKey, anything else unexpected to ErrUpstream.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperror.Upstream("building request", err)
	}
	req.Header.Set("Authorization", "ApeKey "+c.apeKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Upstream("calling "+path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == statusInactiveKey:
		return apperror.InvalidKey("ape key was rejected by the server")
	default:
		return apperror.Upstream(fmt.Sprintf("unexpected HTTP status %d from %s", resp.StatusCode, path), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperror.Upstream("decoding response from "+path, err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperror.Upstream("decoding data from "+path, err)
		}
	}
	return nil
}

// ValidateKey checks the ApeKey against a cheap authenticated endpoint.
// Returns nil for a live key, ErrInvalidKey for a rejected one and
// ErrUpstream for transient failures.
func (c *Client) ValidateKey(ctx context.Context) error {
	return c.get(ctx, "/psas", nil)
}

// Profile fetches the display name for a Monkeytype uid.
func (c *Client) Profile(ctx context.Context, uid string) (*model.Profile, error) {
	var profile model.Profile
	if err := c.get(ctx, "/users/"+url.PathEscape(uid)+"/profile?isUid=true", &profile); err != nil {
		return nil, err
	}
	if profile.Name == "" {
		return nil, apperror.Upstream("profile response has no name for uid "+uid, nil)
	}
	return &profile, nil
}

// LastResult fetches the account's most recent result. Used once at link
// time: it is the cheapest authenticated call that reveals the uid behind
// an ApeKey.
func (c *Client) LastResult(ctx context.Context) (*model.Result, error) {
	var wire wireResult
	if err := c.get(ctx, "/results/last", &wire); err != nil {
		return nil, err
	}
	if wire.UID == "" {
		return nil, apperror.Upstream("last result has no uid", nil)
	}
	result := wire.toModel()
	return &result, nil
}

// Tags fetches the account's tags together with the per-tag personal bests
// Monkeytype reports alongside them.
func (c *Client) Tags(ctx context.Context) ([]model.TagWithBests, error) {
	var wire []wireTag
	if err := c.get(ctx, "/users/tags", &wire); err != nil {
		return nil, err
	}

	tags := make([]model.TagWithBests, 0, len(wire))
	for _, t := range wire {
		tags = append(tags, t.toModel())
	}
	return tags, nil
}

// Results fetches one page of results. sinceMs is a millisecond floor
// passed straight to onOrAfterTimestamp (inclusive upstream, so callers
// wanting strictly-after pass lastSeen+1); zero means no floor. The caller
// detects end-of-data by a page shorter than ResultsPageSize.
func (c *Client) Results(ctx context.Context, sinceMs int64, offset int) ([]model.Result, error) {
	params := url.Values{}
	if sinceMs > 0 {
		params.Set("onOrAfterTimestamp", strconv.FormatInt(sinceMs, 10))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}

	path := "/results"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var wire []wireResult
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}

	results := make([]model.Result, 0, len(wire))
	for _, w := range wire {
		results = append(results, w.toModel())
	}
	return results, nil
}
