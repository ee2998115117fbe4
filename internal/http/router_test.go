package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-builders/secret-santa-bot/internal/domain/assignment"
	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
	"github.com/open-builders/secret-santa-bot/internal/repository/file"
	"github.com/open-builders/secret-santa-bot/internal/service/distribution"
	"github.com/open-builders/secret-santa-bot/internal/service/notifications"
)

type stubDistributor struct {
	report *distribution.Report
	err    error
}

func (s stubDistributor) Run(context.Context) (*distribution.Report, error) {
	return s.report, s.err
}

func newStore(t *testing.T) *file.Store {
	t.Helper()
	store, err := file.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func adminRouter(h *AdminHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestAdminHandler_Distribute(t *testing.T) {
	report := &distribution.Report{
		RunID:        "run-1",
		Participants: 3,
		Pairs:        []assignment.Pair{{GiverID: 1, RecipientID: 2}, {GiverID: 2, RecipientID: 3}, {GiverID: 3, RecipientID: 1}},
		Outcomes:     map[notifications.Outcome]int{notifications.OutcomeDelivered: 2, notifications.OutcomeBlocked: 1},
		Duration:     1500 * time.Millisecond,
	}
	r := adminRouter(NewAdminHandler(stubDistributor{report: report}, newStore(t)))

	w := do(r, http.MethodPost, "/api/v1/admin/distribute")
	require.Equal(t, http.StatusOK, w.Code)

	var resp DistributeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 3, resp.Pairs)
	assert.Equal(t, 2, resp.Delivered)
	assert.Equal(t, 1, resp.Blocked)
	assert.Equal(t, int64(1500), resp.DurationMs)
}

func TestAdminHandler_DistributeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"already running", distribution.ErrRunInProgress, http.StatusConflict},
		{"plain failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := adminRouter(NewAdminHandler(stubDistributor{err: tt.err}, newStore(t)))
			w := do(r, http.MethodPost, "/api/v1/admin/distribute")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAdminHandler_ListParticipantsAndAssignments(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveParticipants(ctx, participant.Set{
		5: {ID: 5, FullName: "Late", RegisteredAt: base.Add(time.Hour)},
		9: {ID: 9, FirstName: "Early", RegisteredAt: base, Assigned: &participant.Assigned{ID: 5}},
	}))
	require.NoError(t, store.SaveAssignments(ctx, assignment.Mapping{9: 5, 5: 9}))
	r := adminRouter(NewAdminHandler(stubDistributor{}, store))

	w := do(r, http.MethodGet, "/api/v1/admin/participants")
	require.Equal(t, http.StatusOK, w.Code)
	var ps []ParticipantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ps))
	require.Len(t, ps, 2)
	assert.Equal(t, int64(9), ps[0].ID)
	assert.Equal(t, "Early", ps[0].FullName)
	require.NotNil(t, ps[0].AssignedTo)
	assert.Equal(t, int64(5), *ps[0].AssignedTo)
	assert.Nil(t, ps[1].AssignedTo)

	w = do(r, http.MethodGet, "/api/v1/admin/assignments")
	require.Equal(t, http.StatusOK, w.Code)
	var as []AssignmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &as))
	assert.Equal(t, []AssignmentResponse{{GiverID: 5, RecipientID: 9}, {GiverID: 9, RecipientID: 5}}, as)
}

func TestAdminHandler_GetParticipant(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveParticipants(ctx, participant.Set{
		9: {ID: 9, FullName: "Anna", Group: "A-7", Assigned: &participant.Assigned{ID: 5}},
	}))
	r := adminRouter(NewAdminHandler(stubDistributor{}, store))

	w := do(r, http.MethodGet, "/api/v1/admin/participants/9")
	require.Equal(t, http.StatusOK, w.Code)
	var p ParticipantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Anna", p.FullName)
	require.NotNil(t, p.AssignedTo)
	assert.Equal(t, int64(5), *p.AssignedTo)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/admin/participants/42", http.StatusNotFound, "PARTICIPANT_NOT_FOUND"},
		{"/api/v1/admin/participants/abc", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"/api/v1/admin/participants/-1", http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path)
			require.Equal(t, tt.status, w.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestNewRouter_PublicEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "santa_test_total", Help: "test"}))

	ready := errors.New("redis down")
	r := NewRouter(Deps{
		Distributor: stubDistributor{},
		Store:       newStore(t),
		IsAdmin:     func(int64) bool { return true },
		BotToken:    "token",
		Gatherer:    reg,
		Ready:       func(context.Context) error { return ready },
		Logger:      zerolog.Nop(),
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/ready").Code)

	ready = nil
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready").Code)

	w := do(r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "santa_test_total")

	w = do(r, http.MethodGet, "/swagger/doc.json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/admin/distribute")
}

func TestNewRouter_AdminRequiresInitData(t *testing.T) {
	r := NewRouter(Deps{
		Distributor: stubDistributor{},
		Store:       newStore(t),
		IsAdmin:     func(int64) bool { return true },
		BotToken:    "token",
		Gatherer:    prometheus.NewRegistry(),
		Logger:      zerolog.Nop(),
	})

	w := do(r, http.MethodPost, "/api/v1/admin/distribute")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
