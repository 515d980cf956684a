// Package gateway translates (method, endpoint, payload, identity) tuples
// into authenticated backend calls, hiding credential refresh and error
// normalization from the conversation flow.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hojimahmudov/orderbot/internal/bot/session"
)

// Client is constructed once at process start and shared; the underlying
// *http.Client is injected so tests can point it at a fake backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sessions   *session.Store
	log        *slog.Logger
}

func NewClient(httpClient *http.Client, baseURL string, sessions *session.Store, log *slog.Logger) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		sessions:   sessions,
		log:        log,
	}
}

// Response is a successful backend reply. Body is nil for 204/empty
// replies.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Decode unmarshals the body into out.
func (r *Response) Decode(out interface{}) error {
	if r.Body == nil {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, out)
}

// Do performs an authenticated call for identity. On a 401 with stored
// credentials it runs the refresh protocol once and retries exactly once;
// a second 401, a missing refresh token or a failed refresh clears the
// stored credentials and returns an Unauthorized error.
func (c *Client) Do(ctx context.Context, method, endpoint string, identity int64, body interface{}, query url.Values) (*Response, error) {
	sess, err := c.sessions.Get(ctx, identity)
	if err != nil {
		return nil, &Error{Kind: ServerError, Detail: fmt.Sprintf("session load: %v", err)}
	}

	resp, gerr := c.send(ctx, method, endpoint, sess, body, query)
	if gerr == nil {
		return resp, nil
	}
	if gerr.Kind != Unauthorized || sess.AccessToken == "" {
		return nil, gerr
	}

	// First 401 with a token present: refresh and retry once.
	if sess.RefreshToken == "" || !c.refresh(ctx, sess) {
		c.logout(ctx, identity)
		return nil, &Error{Kind: Unauthorized, Status: gerr.Status, Detail: "session expired"}
	}

	resp, gerr = c.send(ctx, method, endpoint, sess, body, query)
	if gerr == nil {
		return resp, nil
	}
	if gerr.Kind == Unauthorized {
		// Second consecutive 401: full logout, never a third attempt.
		c.logout(ctx, identity)
		return nil, &Error{Kind: Unauthorized, Status: gerr.Status, Detail: "session expired"}
	}
	return nil, gerr
}

func (c *Client) send(ctx context.Context, method, endpoint string, sess *session.Session, body interface{}, query url.Values) (*Response, *Error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: ValidationError, Detail: fmt.Sprintf("encode payload: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Kind: NetworkError, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", sess.Locale)
	if sess.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: Timeout, Status: 504, Detail: "backend did not respond"}
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, &Error{Kind: Timeout, Status: 504, Detail: "backend did not respond"}
		}
		return nil, &Error{Kind: NetworkError, Status: 503, Detail: "could not reach backend"}
	}
	defer httpResp.Body.Close()

	c.log.Debug("api call",
		"method", method, "endpoint", endpoint,
		"status", httpResp.StatusCode, "took", time.Since(start))

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Kind: NetworkError, Status: 503, Detail: "truncated response"}
	}

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		if httpResp.StatusCode == http.StatusNoContent || len(raw) == 0 {
			return &Response{Status: httpResp.StatusCode}, nil
		}
		return &Response{Status: httpResp.StatusCode, Body: raw}, nil
	}

	return nil, classify(httpResp.StatusCode, raw)
}

func classify(status int, raw []byte) *Error {
	detail := extractDetail(raw)
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: Unauthorized, Status: status, Detail: detail}
	case status == http.StatusNotFound:
		return &Error{Kind: NotFound, Status: status, Detail: detail}
	case status >= 400 && status < 500:
		return &Error{Kind: ValidationError, Status: status, Detail: detail}
	default:
		return &Error{Kind: ServerError, Status: status, Detail: detail}
	}
}

func extractDetail(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := string(raw)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// refresh runs the token refresh protocol and persists the rotated pair.
// Only the credential fields of the session are touched.
func (c *Client) refresh(ctx context.Context, sess *session.Session) bool {
	payload, _ := json.Marshal(map[string]string{"refresh": sess.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"auth/token/refresh/", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil || tokens.Access == "" {
		return false
	}

	sess.SetCredentials(tokens.Access, tokens.Refresh)
	if err := c.sessions.Save(ctx, sess); err != nil {
		c.log.Error("persist refreshed credentials", "identity", sess.Identity, "error", err)
		return false
	}
	c.log.Info("credentials refreshed", "identity", sess.Identity)
	return true
}

func (c *Client) logout(ctx context.Context, identity int64) {
	if err := c.sessions.ClearCredentials(ctx, identity); err != nil {
		c.log.Error("clear credentials", "identity", identity, "error", err)
	}
}
