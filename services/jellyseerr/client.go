package jellyseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// defaultTokenMaxAge is how long a session token is trusted before the client
// proactively logs in again. Jellyseerr can invalidate tokens sooner than
// this; the 401 path in do() covers that case.
const defaultTokenMaxAge = 360 * time.Minute

// Client talks to a Jellyseerr/Overseerr-compatible API: local login, search
// and request submission. It owns the session token and refreshes it
// transparently, so callers never deal with authentication.
type Client struct {
	baseURL  string
	email    string
	password string
	is4k     bool
	httpc    *http.Client

	mu         sync.Mutex
	token      string
	obtainedAt time.Time
	maxAge     time.Duration
}

func NewClient(baseURL, email, password string, is4k bool, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{
			Timeout:   15 * time.Second,
			Transport: newRetryTransport(nil),
		}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		password: password,
		is4k:     is4k,
		httpc:    httpc,
		maxAge:   defaultTokenMaxAge,
	}
}

// Authenticate logs in with the configured credentials and stores the session
// token. On any failure the stored token is cleared, so a later call sees the
// session as expired and tries again.
func (c *Client) Authenticate(ctx context.Context) error {
	payload := map[string]string{"email": c.email, "password": c.password}
	buf, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/local", bytes.NewReader(buf))
	if err != nil {
		c.clearToken()
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.clearToken()
		return fmt.Errorf("jellyseerr login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.clearToken()
		return fmt.Errorf("jellyseerr login failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.clearToken()
		return fmt.Errorf("decode login response: %w", err)
	}
	if data.AccessToken == "" {
		c.clearToken()
		return errors.New("jellyseerr login returned no access token")
	}

	c.mu.Lock()
	c.token = data.AccessToken
	c.obtainedAt = time.Now()
	c.mu.Unlock()

	log.Println("[jellyseerr] ✅ authenticated")
	return nil
}

// TokenExpired reports whether the session needs a fresh login, either
// because no token is held or because the held one has outlived its max age.
func (c *Client) TokenExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token == "" || time.Since(c.obtainedAt) > c.maxAge
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// do performs an authenticated call. It refreshes the session up front when
// the token has aged out, and on a 401 it re-authenticates and retries the
// same call exactly once before giving up.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, error) {
	if c.TokenExpired() {
		log.Println("[jellyseerr] 🔄 token missing or expired, re-authenticating")
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		log.Println("[jellyseerr] ⚠️ 401 unauthorized, refreshing session and retrying once")
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
		return c.send(ctx, method, path, query, payload)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpc.Do(req)
}
