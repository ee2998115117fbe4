package http

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
	"github.com/open-builders/secret-santa-bot/internal/http/middleware"
	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

// Distributor runs a distribution on demand.
type Distributor interface {
	Run(ctx context.Context) (*distribution.Report, error)
}

// AdminHandler serves the organizer endpoints.
type AdminHandler struct {
	distributor Distributor
	store       participant.Repository
}

func NewAdminHandler(distributor Distributor, store participant.Repository) *AdminHandler {
	return &AdminHandler{distributor: distributor, store: store}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin")
	{
		admin.POST("/distribute", h.Distribute)
		admin.GET("/participants", h.ListParticipants)
		admin.GET("/participants/:id", h.GetParticipant)
		admin.GET("/assignments", h.ListAssignments)
	}
}

// DistributeResponse summarises a finished run.
type DistributeResponse struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	DurationMs   int64     `json:"duration_ms"`
	Participants int       `json:"participants"`
	Pairs        int       `json:"pairs"`
	Fallback     bool      `json:"fallback"`
	Delivered    int       `json:"delivered"`
	Blocked      int       `json:"blocked"`
	Exhausted    int       `json:"exhausted"`
	Canceled     int       `json:"canceled"`
	Skipped      int       `json:"skipped"`
}

// ParticipantResponse is a registered participant as seen by organizers.
type ParticipantResponse struct {
	ID           int64     `json:"tg_id"`
	Username     string    `json:"username,omitempty"`
	FullName     string    `json:"full_name"`
	Group        string    `json:"group,omitempty"`
	Room         string    `json:"room,omitempty"`
	Wishes       string    `json:"wishes"`
	RegisteredAt time.Time `json:"registered_at"`
	AssignedTo   *int64    `json:"assigned_to,omitempty"`
}

// AssignmentResponse is one giver/recipient pair.
type AssignmentResponse struct {
	GiverID     int64 `json:"giver_id"`
	RecipientID int64 `json:"recipient_id"`
}

// @Summary Run the distribution now
// @Description Pairs all registered participants, stores the result and notifies every giver. Returns 409 if a run is already in progress.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} DistributeResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Failure 403 {object} middleware.ErrorResponse "Not an organizer"
// @Failure 409 {object} middleware.ErrorResponse "Distribution already running"
// @Failure 500 {object} middleware.ErrorResponse "Storage failure"
// @Router /admin/distribute [post]
func (h *AdminHandler) Distribute(c *gin.Context) {
	report, err := h.distributor.Run(c.Request.Context())
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, DistributeResponse{
		RunID:        report.RunID,
		StartedAt:    report.StartedAt,
		DurationMs:   report.Duration.Milliseconds(),
		Participants: report.Participants,
		Pairs:        len(report.Pairs),
		Fallback:     report.Fallback,
		Delivered:    report.Outcomes[notifications.OutcomeDelivered],
		Blocked:      report.Outcomes[notifications.OutcomeBlocked],
		Exhausted:    report.Outcomes[notifications.OutcomeExhausted],
		Canceled:     report.Outcomes[notifications.OutcomeCanceled],
		Skipped:      report.Skipped,
	})
}

// @Summary List participants
// @Description Registered participants in registration order.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} ParticipantResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /admin/participants [get]
func (h *AdminHandler) ListParticipants(c *gin.Context) {
	set, err := h.store.LoadParticipants(c.Request.Context())
	if err != nil {
		middleware.Abort(c, apperrors.NewStorageError("load participants", err))
		return
	}

	out := make([]ParticipantResponse, 0, len(set))
	for _, id := range set.IDs() {
		out = append(out, toParticipantResponse(set[id]))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary Get a participant
// @Description One registered participant by Telegram user id.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Param id path int true "Telegram user id"
// @Success 200 {object} ParticipantResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid id"
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Not registered"
// @Failure 500 {object} middleware.ErrorResponse
// @Router /admin/participants/{id} [get]
func (h *AdminHandler) GetParticipant(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.Abort(c, apperrors.New(apperrors.ErrCodeValidation, "id must be a positive integer").
			WithDetail("field", "id"))
		return
	}

	set, err := h.store.LoadParticipants(c.Request.Context())
	if err != nil {
		middleware.Abort(c, apperrors.NewStorageError("load participants", err))
		return
	}
	p, ok := set[id]
	if !ok {
		middleware.Abort(c, apperrors.New(apperrors.ErrCodeParticipantNotFound, "participant not found").
			WithDetail("tg_id", id))
		return
	}
	c.JSON(http.StatusOK, toParticipantResponse(p))
}

func toParticipantResponse(p *participant.Participant) ParticipantResponse {
	resp := ParticipantResponse{
		ID:           p.ID,
		Username:     p.Username,
		FullName:     p.DisplayName(),
		Group:        p.Group,
		Room:         p.Room,
		Wishes:       p.Wishes,
		RegisteredAt: p.RegisteredAt,
	}
	if p.Assigned != nil {
		to := p.Assigned.ID
		resp.AssignedTo = &to
	}
	return resp
}

// @Summary Current assignments
// @Description The giver to recipient mapping of the last distribution, ordered by giver id.
// @Tags admin
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} AssignmentResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /admin/assignments [get]
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	m, err := h.store.LoadAssignments(c.Request.Context())
	if err != nil {
		middleware.Abort(c, apperrors.NewStorageError("load assignments", err))
		return
	}

	out := make([]AssignmentResponse, 0, len(m))
	for giver, recipient := range m {
		out = append(out, AssignmentResponse{GiverID: giver, RecipientID: recipient})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GiverID < out[j].GiverID })
	c.JSON(http.StatusOK, out)
}
