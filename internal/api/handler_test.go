package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Ar5h1a-M/LockedIn/internal/api"
	"github.com/Ar5h1a-M/LockedIn/internal/events"
	"github.com/Ar5h1a-M/LockedIn/internal/model"
	"github.com/Ar5h1a-M/LockedIn/internal/store"
)

type fakeBackend struct {
	sessions    []model.Session
	myAccepted  []model.Session
	createCalls atomic.Int64
	rsvpCalls   atomic.Int64
}

func (f *fakeBackend) FetchGroupSessions(ctx context.Context, token, groupID string) ([]model.Session, error) {
	return f.sessions, nil
}

func (f *fakeBackend) FetchMyAcceptedSessions(ctx context.Context, token string) ([]model.Session, error) {
	return f.myAccepted, nil
}

func (f *fakeBackend) CreateSession(ctx context.Context, token, groupID string, input model.CreateSessionInput) (*model.Session, error) {
	f.createCalls.Add(1)
	return &model.Session{ID: "created", GroupID: groupID, StartAt: input.StartAt}, nil
}

func (f *fakeBackend) DeleteSession(ctx context.Context, token, groupID, sessionID string) error {
	return nil
}

func (f *fakeBackend) SetRSVP(ctx context.Context, token, sessionID string, status model.RSVPStatus) error {
	f.rsvpCalls.Add(1)
	return nil
}

func (f *fakeBackend) FetchUnavailableMembers(ctx context.Context, token, groupID string, start, end time.Time) ([]string, error) {
	return nil, nil
}

func (f *fakeBackend) FetchMessages(ctx context.Context, token, groupID string, limit int) ([]model.ChatMessage, error) {
	return nil, nil
}

func (f *fakeBackend) PostMessage(ctx context.Context, token, groupID string, input model.PostMessageInput) error {
	return nil
}

func intPtr(v int) *int { return &v }

func newApp(t *testing.T, fake *fakeBackend) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	registry := store.NewRegistry(fake, events.NoopPublisher{})
	handler := api.NewPlannerHandler(registry, fake)

	app := fiber.New()
	groups := app.Group("/v1/groups/:groupId")
	groups.Use(api.AuthMiddleware())
	groups.Get("/planner", handler.GetPlanner)
	groups.Post("/sessions", handler.CreateSession)
	groups.Delete("/sessions/:id", handler.DeleteSession)
	groups.Post("/sessions/:id/rsvp", handler.RSVP)
	return app
}

func signToken(t *testing.T) string {
	t.Helper()
	claims := jwtv5.MapClaims{
		"sub": uuid.NewString(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
	}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func TestPlannerRequiresAuth(t *testing.T) {
	app := newApp(t, &fakeBackend{})

	status, body := doJSON(t, app, "GET", "/v1/groups/g1/planner", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "Missing authorization header", body["error"])
}

func TestGetPlannerDerivedState(t *testing.T) {
	fake := &fakeBackend{
		sessions: []model.Session{
			{ID: "s-1", GroupID: "g1", StartAt: "2025-01-01T09:00:00Z", TimeGoalMinutes: intPtr(30)},
			{ID: "s-2", GroupID: "g1", StartAt: "2025-01-01T10:30:00Z"},
		},
		myAccepted: []model.Session{
			{ID: "acc-1", GroupID: "g2", StartAt: "2025-01-01T10:00:00Z"},
		},
	}
	app := newApp(t, fake)

	status, body := doJSON(t, app, "GET", "/v1/groups/g1/planner", signToken(t), nil)
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, body["conflict_banner"])

	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 2)
	require.False(t, sessions[0].(map[string]any)["conflicts"].(bool))
	require.True(t, sessions[1].(map[string]any)["conflicts"].(bool))
}

func TestCreateConflictHandshake(t *testing.T) {
	fake := &fakeBackend{
		myAccepted: []model.Session{
			{ID: "acc-1", GroupID: "g2", StartAt: "2025-01-01T10:00:00Z"},
		},
	}
	app := newApp(t, fake)
	token := signToken(t)

	// prime the store so the conflict gate sees the accepted list
	status, _ := doJSON(t, app, "GET", "/v1/groups/g1/planner", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	create := map[string]any{"start_at": "2025-01-01T10:30:00Z"}
	status, body := doJSON(t, app, "POST", "/v1/groups/g1/sessions", token, create)
	require.Equal(t, fiber.StatusConflict, status)
	require.Equal(t, true, body["confirmation_required"])
	require.Zero(t, fake.createCalls.Load())

	create["confirmed"] = true
	status, _ = doJSON(t, app, "POST", "/v1/groups/g1/sessions", token, create)
	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, int64(1), fake.createCalls.Load())
}

func TestCreateMissingStartAt(t *testing.T) {
	app := newApp(t, &fakeBackend{})

	status, body := doJSON(t, app, "POST", "/v1/groups/g1/sessions", signToken(t), map[string]any{})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.NotEmpty(t, body["error"])
}

func TestRSVPDeclineSkipsHandshake(t *testing.T) {
	fake := &fakeBackend{
		sessions: []model.Session{
			{ID: "s-1", GroupID: "g1", StartAt: "2025-01-01T10:30:00Z"},
		},
		myAccepted: []model.Session{
			{ID: "acc-1", GroupID: "g2", StartAt: "2025-01-01T10:00:00Z"},
		},
	}
	app := newApp(t, fake)
	token := signToken(t)

	status, _ := doJSON(t, app, "GET", "/v1/groups/g1/planner", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	body := map[string]any{"status": "declined"}
	status, _ = doJSON(t, app, "POST", "/v1/groups/g1/sessions/s-1/rsvp", token, body)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, int64(1), fake.rsvpCalls.Load())
}

func TestRSVPRejectsUnknownStatus(t *testing.T) {
	app := newApp(t, &fakeBackend{})

	body := map[string]any{"status": "maybe"}
	status, _ := doJSON(t, app, "POST", "/v1/groups/g1/sessions/s-1/rsvp", signToken(t), body)
	require.Equal(t, fiber.StatusBadRequest, status)
}
