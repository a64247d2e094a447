package api

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/Ar5h1a-M/LockedIn/internal/backend"
	"github.com/Ar5h1a-M/LockedIn/internal/model"
	"github.com/Ar5h1a-M/LockedIn/internal/schedule"
	"github.com/Ar5h1a-M/LockedIn/internal/store"
)

type PlannerHandler struct {
	registry *store.Registry
	backend  backend.Client
	validate *validator.Validate
}

func NewPlannerHandler(registry *store.Registry, b backend.Client) *PlannerHandler {
	return &PlannerHandler{
		registry: registry,
		backend:  b,
		validate: validator.New(),
	}
}

type PlannerResponse struct {
	UserID string `json:"user_id"`
	store.View
}

type CreateSessionRequest struct {
	StartAt         string  `json:"start_at" validate:"required"`
	Venue           *string `json:"venue" validate:"omitempty,max=200"`
	Topic           *string `json:"topic" validate:"omitempty,max=200"`
	TimeGoalMinutes *int    `json:"time_goal_minutes" validate:"omitempty,min=1,max=1440"`
	ContentGoal     *string `json:"content_goal" validate:"omitempty,max=500"`
	// Confirmed answers a previous confirmation_required response. A
	// conflicting create without it is rejected before any backend call.
	Confirmed bool `json:"confirmed"`
}

type RSVPRequest struct {
	Status    model.RSVPStatus `json:"status" validate:"required,oneof=accepted declined"`
	Confirmed bool             `json:"confirmed"`
}

type PostMessageRequest struct {
	SessionID     *string `json:"session_id"`
	Content       *string `json:"content" validate:"omitempty,max=4000"`
	AttachmentURL *string `json:"attachment_url" validate:"omitempty,url"`
}

func (h *PlannerHandler) GetPlanner(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	st := h.registry.For(userID, groupID)
	if err := st.Load(c.Context(), TokenFromContext(c)); err != nil {
		return collaboratorError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(PlannerResponse{UserID: userID, View: st.Snapshot()})
}

func (h *PlannerHandler) CreateSession(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request CreateSessionRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	st := h.registry.For(userID, groupID)
	input := model.CreateSessionInput{
		StartAt:         request.StartAt,
		Venue:           request.Venue,
		Topic:           request.Topic,
		TimeGoalMinutes: request.TimeGoalMinutes,
		ContentGoal:     request.ContentGoal,
	}

	err = st.Create(c.Context(), TokenFromContext(c), input, func() bool { return request.Confirmed })
	if err != nil {
		return plannerActionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Session created"})
}

func (h *PlannerHandler) DeleteSession(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	sessionID := c.Params("id")

	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	st := h.registry.For(userID, groupID)
	if err := st.Delete(c.Context(), TokenFromContext(c), sessionID); err != nil {
		return plannerActionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Session deleted"})
}

func (h *PlannerHandler) RSVP(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	sessionID := c.Params("id")

	userID, err := GetUserIDFromClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user claims"})
	}

	var request RSVPRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	st := h.registry.For(userID, groupID)
	err = st.RSVP(c.Context(), TokenFromContext(c), sessionID, request.Status, func() bool { return request.Confirmed })
	if err != nil {
		return plannerActionError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "RSVP updated"})
}

func (h *PlannerHandler) ListMessages(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	limit := c.QueryInt("limit", 200)

	messages, err := h.backend.FetchMessages(c.Context(), TokenFromContext(c), groupID, limit)
	if err != nil {
		return collaboratorError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"messages": messages})
}

func (h *PlannerHandler) PostMessage(c *fiber.Ctx) error {
	groupID := c.Params("groupId")

	var request PostMessageRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}
	if request.Content == nil && request.AttachmentURL == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message needs content or an attachment"})
	}

	input := model.PostMessageInput{
		SessionID:     request.SessionID,
		Content:       request.Content,
		AttachmentURL: request.AttachmentURL,
	}
	if err := h.backend.PostMessage(c.Context(), TokenFromContext(c), groupID, input); err != nil {
		return collaboratorError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Message sent"})
}

// plannerActionError maps store-level failures of create/delete/rsvp onto
// HTTP responses: validation problems are 400s, a declined (or unanswered)
// confirmation is the 409 handshake the UI's confirm dialog answers, and
// everything else is a collaborator failure.
func plannerActionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrStartAtRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Please pick a date and time"})
	case errors.Is(err, schedule.ErrMalformedStart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start time"})
	case errors.Is(err, store.ErrConfirmationDeclined):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":                 store.ErrConfirmationDeclined.Error(),
			"confirmation_required": true,
		})
	default:
		return collaboratorError(c, err)
	}
}

func collaboratorError(c *fiber.Ctx, err error) error {
	if errors.Is(err, backend.ErrNoToken) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{"error": apiErr.Message})
	}

	slog.ErrorContext(c.UserContext(), "backend call failed", slog.String("error", err.Error()))
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Backend unavailable"})
}
