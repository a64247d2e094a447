// Package backend is the HTTP client for the REST backend that owns
// sessions, RSVPs, availability and the group message feed. Authentication
// and persistence live entirely on the other side of these calls.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Ar5h1a-M/LockedIn/internal/model"
)

// ErrNoToken means the caller has no access token yet. The request is never
// sent; this is "not yet authenticated", not a collaborator failure.
var ErrNoToken = errors.New("no access token available")

// APIError carries a non-2xx backend response. The backend's own message is
// preferred; a generic fallback is used when the body has none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

type Client interface {
	FetchGroupSessions(ctx context.Context, token, groupID string) ([]model.Session, error)
	FetchMyAcceptedSessions(ctx context.Context, token string) ([]model.Session, error)
	CreateSession(ctx context.Context, token, groupID string, input model.CreateSessionInput) (*model.Session, error)
	DeleteSession(ctx context.Context, token, groupID, sessionID string) error
	SetRSVP(ctx context.Context, token, sessionID string, status model.RSVPStatus) error
	FetchUnavailableMembers(ctx context.Context, token, groupID string, start, end time.Time) ([]string, error)
	FetchMessages(ctx context.Context, token, groupID string, limit int) ([]model.ChatMessage, error)
	PostMessage(ctx context.Context, token, groupID string, input model.PostMessageInput) error
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPClient) do(ctx context.Context, token, method, path string, query url.Values, body any, out any) error {
	if token == "" {
		return ErrNoToken
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		if envelope.Error == "" {
			envelope.Error = "request failed"
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) FetchGroupSessions(ctx context.Context, token, groupID string) ([]model.Session, error) {
	var envelope struct {
		Sessions []model.Session `json:"sessions"`
	}
	path := fmt.Sprintf("/api/groups/%s/sessions", groupID)
	if err := c.do(ctx, token, http.MethodGet, path, nil, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Sessions, nil
}

func (c *HTTPClient) FetchMyAcceptedSessions(ctx context.Context, token string) ([]model.Session, error) {
	var envelope struct {
		Sessions []model.Session `json:"sessions"`
	}
	query := url.Values{"status": {string(model.RSVPAccepted)}}
	if err := c.do(ctx, token, http.MethodGet, "/api/my/sessions", query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Sessions, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, token, groupID string, input model.CreateSessionInput) (*model.Session, error) {
	var created model.Session
	path := fmt.Sprintf("/api/groups/%s/sessions", groupID)
	if err := c.do(ctx, token, http.MethodPost, path, nil, input, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, token, groupID, sessionID string) error {
	path := fmt.Sprintf("/api/groups/%s/sessions/%s", groupID, sessionID)
	return c.do(ctx, token, http.MethodDelete, path, nil, nil, nil)
}

func (c *HTTPClient) SetRSVP(ctx context.Context, token, sessionID string, status model.RSVPStatus) error {
	path := fmt.Sprintf("/api/sessions/%s/rsvp", sessionID)
	body := map[string]model.RSVPStatus{"status": status}
	return c.do(ctx, token, http.MethodPost, path, nil, body, nil)
}

func (c *HTTPClient) FetchUnavailableMembers(ctx context.Context, token, groupID string, start, end time.Time) ([]string, error) {
	var envelope struct {
		UnavailableUsernames []string `json:"unavailable_usernames"`
	}
	query := url.Values{
		"start": {start.UTC().Format(time.RFC3339)},
		"end":   {end.UTC().Format(time.RFC3339)},
	}
	path := fmt.Sprintf("/api/groups/%s/availability", groupID)
	if err := c.do(ctx, token, http.MethodGet, path, query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.UnavailableUsernames, nil
}

func (c *HTTPClient) FetchMessages(ctx context.Context, token, groupID string, limit int) ([]model.ChatMessage, error) {
	var envelope struct {
		Messages []model.ChatMessage `json:"messages"`
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	path := fmt.Sprintf("/api/groups/%s/messages", groupID)
	if err := c.do(ctx, token, http.MethodGet, path, query, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Messages, nil
}

func (c *HTTPClient) PostMessage(ctx context.Context, token, groupID string, input model.PostMessageInput) error {
	path := fmt.Sprintf("/api/groups/%s/messages", groupID)
	return c.do(ctx, token, http.MethodPost, path, nil, input, nil)
}
