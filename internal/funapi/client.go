// Package funapi is the client for the upstream fun/meta API that backs the
// entertainment and lookup commands. The upstream exposes several equivalent
// paths per feature; the client tries them in order and returns the first
// usable payload.
package funapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// ErrNoEndpoints is returned when every candidate path failed.
var ErrNoEndpoints = errors.New("funapi: all endpoints failed")

// ErrNotConfigured is returned when the client has no base URL.
var ErrNotConfigured = errors.New("funapi: no base url configured")

// APIError is a response the upstream itself flagged as failed.
type APIError struct {
	Path    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("funapi: %s: %s", e.Path, e.Message)
}

// Client talks to the upstream API. All requests share one rate limiter so
// bursts of commands cannot exhaust the upstream key. Safe for concurrent use.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Options tunes a Client beyond the required base URL.
type Options struct {
	Key     string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// New builds a Client. An empty baseURL yields a client whose calls all
// return ErrNotConfigured, so callers can wire it unconditionally.
func New(baseURL string, opts Options, log zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 10
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     opts.Key,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log.With().Str("component", "funapi").Logger(),
	}
}

// payload is the upstream's loose response envelope. Which field carries the
// body varies by endpoint.
type payload struct {
	Status  *bool           `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Data    json.RawMessage `json:"data"`
}

// getJSON fetches one path and decodes the envelope, returning the body
// field that is populated. A `status:false` envelope is an *APIError.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.key != "" {
		q.Set("apikey", c.key)
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("funapi: %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		// Some endpoints return a bare JSON value with no envelope.
		return json.RawMessage(body), nil
	}
	if p.Status != nil && !*p.Status {
		msg := p.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, &APIError{Path: path, Message: msg}
	}
	switch {
	case len(p.Result) > 0 && string(p.Result) != "null":
		return p.Result, nil
	case len(p.Data) > 0 && string(p.Data) != "null":
		return p.Data, nil
	default:
		return json.RawMessage(body), nil
	}
}

// any walks the candidate paths in order and returns the first success.
// Context and envelope rejections end the walk early; transport errors move
// on to the next path.
func (c *Client) any(ctx context.Context, paths []string, params url.Values) (json.RawMessage, error) {
	var lastErr error
	for _, path := range paths {
		raw, err := c.getJSON(ctx, path, params)
		if err == nil {
			return raw, nil
		}
		var apiErr *APIError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, ErrNotConfigured) || errors.As(err, &apiErr) {
			return nil, err
		}
		c.log.Warn().Err(err).Str("path", path).Msg("endpoint failed, trying next")
		lastErr = err
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEndpoints, lastErr)
	}
	return nil, ErrNoEndpoints
}

// text decodes a response that is either a bare string or an object with a
// conventional text-ish field.
func text(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("funapi: undecodable text payload")
	}
	for _, k := range []string{"text", "quote", "joke", "message", "result"} {
		if v, ok := obj[k].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("funapi: no text field in payload")
}

// imageURL decodes a response that carries an image location.
func imageURL(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("funapi: undecodable image payload")
	}
	for _, k := range []string{"url", "image", "img", "link"} {
		if v, ok := obj[k].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("funapi: no image field in payload")
}

// Joke returns a random joke line.
func (c *Client) Joke(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/joke", "/api/fun/joke"}, nil)
	if err != nil {
		return "", err
	}
	return text(raw)
}

// Quote returns a random quote line.
func (c *Client) Quote(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/quote", "/api/randomquotes"}, nil)
	if err != nil {
		return "", err
	}
	return text(raw)
}

// Fact returns a random fact line.
func (c *Client) Fact(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/fact", "/api/funfact"}, nil)
	if err != nil {
		return "", err
	}
	return text(raw)
}

// Truth returns a truth prompt for the truth-or-dare game.
func (c *Client) Truth(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/truth", "/api/game/truth"}, nil)
	if err != nil {
		return "", err
	}
	return text(raw)
}

// Dare returns a dare prompt for the truth-or-dare game.
func (c *Client) Dare(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/dare", "/api/game/dare"}, nil)
	if err != nil {
		return "", err
	}
	return text(raw)
}

// Meme returns the URL of a random meme image.
func (c *Client) Meme(ctx context.Context) (string, error) {
	raw, err := c.any(ctx, []string{"/api/meme", "/api/randommeme"}, nil)
	if err != nil {
		return "", err
	}
	return imageURL(raw)
}

// StalkResult is the subset of profile lookup data the commands render.
type StalkResult struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
	Posts    int    `json:"posts"`
	Follower int    `json:"follower"`
	Avatar   string `json:"avatar"`
}

// StalkInstagram looks up a public Instagram profile.
func (c *Client) StalkInstagram(ctx context.Context, username string) (*StalkResult, error) {
	return c.stalk(ctx, []string{"/api/stalk/ig", "/api/igstalk"}, username)
}

// StalkTikTok looks up a public TikTok profile.
func (c *Client) StalkTikTok(ctx context.Context, username string) (*StalkResult, error) {
	return c.stalk(ctx, []string{"/api/stalk/tiktok", "/api/ttstalk"}, username)
}

// StalkGitHub looks up a public GitHub profile.
func (c *Client) StalkGitHub(ctx context.Context, username string) (*StalkResult, error) {
	return c.stalk(ctx, []string{"/api/stalk/github", "/api/ghstalk"}, username)
}

// NPMPackage is the registry lookup data the commands render.
type NPMPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
}

// StalkNPM looks up a package on the npm registry.
func (c *Client) StalkNPM(ctx context.Context, name string) (*NPMPackage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("funapi: empty package name")
	}
	raw, err := c.any(ctx, []string{"/api/stalk/npm", "/api/npmstalk"}, url.Values{"q": {name}})
	if err != nil {
		return nil, err
	}
	var pkg NPMPackage
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("funapi: undecodable npm payload: %w", err)
	}
	if pkg.Name == "" {
		pkg.Name = name
	}
	return &pkg, nil
}

// GameNickname resolves an in-game account id (and optional zone) to its
// nickname. Supported games: "ml", "ff".
func (c *Client) GameNickname(ctx context.Context, game, id, zone string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("funapi: empty account id")
	}
	params := url.Values{"id": {id}}
	if zone != "" {
		params.Set("zone", zone)
	}
	var paths []string
	switch game {
	case "ml":
		paths = []string{"/api/stalk/ml", "/api/mlstalk"}
	case "ff":
		paths = []string{"/api/stalk/ff", "/api/ffstalk"}
	default:
		return "", fmt.Errorf("funapi: unknown game %q", game)
	}
	raw, err := c.any(ctx, paths, params)
	if err != nil {
		return "", err
	}
	var obj struct {
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Nickname != "" {
			return obj.Nickname, nil
		}
		if obj.Name != "" {
			return obj.Name, nil
		}
	}
	return text(raw)
}

func (c *Client) stalk(ctx context.Context, paths []string, username string) (*StalkResult, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("funapi: empty username")
	}
	raw, err := c.any(ctx, paths, url.Values{"username": {username}})
	if err != nil {
		return nil, err
	}
	var res StalkResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("funapi: undecodable stalk payload: %w", err)
	}
	if res.Username == "" {
		res.Username = username
	}
	return &res, nil
}
