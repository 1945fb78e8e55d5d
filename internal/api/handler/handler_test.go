package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jon4hz/logicsweep/internal/api/models"
	"github.com/jon4hz/logicsweep/internal/config"
	"github.com/jon4hz/logicsweep/internal/database"
	"github.com/jon4hz/logicsweep/internal/database/mock"
	"github.com/jon4hz/logicsweep/internal/engine"
)

func testConfig() *config.Config {
	return &config.Config{
		ScanSchedule: "0 */6 * * *",
		Targets: []*config.TargetConfig{
			{Name: "api", Path: "/tmp/api"},
		},
	}
}

// fakeAuth injects a user into the context the way the auth middleware does.
func fakeAuth(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", user.Sub)
		c.Set("user", user)
		c.Next()
	}
}

func newTestHandler(t *testing.T, db database.DB) *Handler {
	t.Helper()

	cfg := testConfig()
	eng, err := engine.New(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return New(eng, db, cfg)
}

func newTestRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(user))
	return r
}

func adminUser() *models.User {
	return &models.User{ID: 1, Sub: "sub-1", Username: "admin", IsAdmin: true, CanTriggerScans: true}
}

func plainUser() *models.User {
	return &models.User{ID: 2, Sub: "sub-2", Username: "bob"}
}

func seedRunWithFindings(t *testing.T, db *mock.MockDB) *database.ScanRun {
	t.Helper()

	run, err := db.StartScanRun(context.Background(), "api")
	require.NoError(t, err)

	err = db.CreateFindings(context.Background(), run.ID, []database.Finding{
		{RuleID: "LOGIC-001", Severity: "high", Confidence: "low", Message: "Endpoint exposes user-scoped data without ownership validation", Endpoint: "GET /api/users/<id>"},
		{RuleID: "LOGIC-002", Severity: "high", Confidence: "medium", Message: "State-changing endpoint without authorization check", Endpoint: "POST /api/admin/settings"},
	})
	require.NoError(t, err)

	err = db.CompleteScanRun(context.Background(), run.ID, database.ScanRunStatusCompleted, 3, 2, nil)
	require.NoError(t, err)

	return run
}

func TestListScanRuns(t *testing.T) {
	db := mock.NewMockDB()
	seedRunWithFindings(t, db)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.GET("/api/scans", h.ListScanRuns)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scans", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                      `json:"success"`
		Data    models.ScanHistoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "api", resp.Data.Items[0].Target)
	assert.Equal(t, string(database.ScanRunStatusCompleted), resp.Data.Items[0].Status)
	assert.Equal(t, 2, resp.Data.Items[0].FindingCount)
}

func TestGetScanRun(t *testing.T) {
	db := mock.NewMockDB()
	run := seedRunWithFindings(t, db)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.GET("/api/scans/:id", h.GetScanRun)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scans/1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Run      models.ScanRunItem   `json:"run"`
			Findings []models.FindingItem `json:"findings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, run.RunID, resp.Data.Run.RunID)
	assert.Len(t, resp.Data.Findings, 2)
}

func TestGetScanRun_NotFound(t *testing.T) {
	db := mock.NewMockDB()
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.GET("/api/scans/:id", h.GetScanRun)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scans/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scans/nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActiveScan_None(t *testing.T) {
	db := mock.NewMockDB()
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.GET("/api/scans/active", h.ActiveScan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scans/active", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    any  `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestTriggerScan_Forbidden(t *testing.T) {
	db := mock.NewMockDB()
	h := newTestHandler(t, db)

	r := newTestRouter(plainUser())
	r.POST("/api/scans/trigger", h.TriggerScan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/scans/trigger", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTriggerScan_AlreadyRunning(t *testing.T) {
	db := mock.NewMockDB()
	_, err := db.StartScanRun(context.Background(), "api")
	require.NoError(t, err)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.POST("/api/scans/trigger", h.TriggerScan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/scans/trigger", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListFindings_Filtered(t *testing.T) {
	db := mock.NewMockDB()
	seedRunWithFindings(t, db)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.GET("/api/findings", h.ListFindings)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/findings?ruleId=LOGIC-001", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.FindingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, "LOGIC-001", resp.Data.Items[0].RuleID)
	assert.Equal(t, string(database.FindingStateOpen), resp.Data.Items[0].State)
}

func TestUpdateFindingState(t *testing.T) {
	db := mock.NewMockDB()
	seedRunWithFindings(t, db)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.PUT("/api/findings/:id/state", h.UpdateFindingState)

	body := strings.NewReader(`{"state":"resolved"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/findings/1/state", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	finding, err := db.GetFindingByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, database.FindingStateResolved, finding.State)

	// state change lands in the history
	events, err := db.GetHistoryEventsByFindingID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, database.HistoryEventFindingResolved, events[0].EventType)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, uint(1), *events[0].UserID)
}

func TestUpdateFindingState_InvalidState(t *testing.T) {
	db := mock.NewMockDB()
	seedRunWithFindings(t, db)
	h := newTestHandler(t, db)

	r := newTestRouter(adminUser())
	r.PUT("/api/findings/:id/state", h.UpdateFindingState)

	body := strings.NewReader(`{"state":"banana"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/findings/1/state", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateUserPermissions(t *testing.T) {
	db := mock.NewMockDB()
	user, err := db.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	h := newTestHandler(t, db)
	admin := NewAdmin(h)

	r := newTestRouter(adminUser())
	r.PUT("/api/admin/users/:id/permissions", admin.UpdateUserPermissions)

	body := strings.NewReader(`{"canTriggerScans":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/1/permissions", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	updated, err := db.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, updated.UserPermissions.CanTriggerScans)
}

func TestListUsers(t *testing.T) {
	db := mock.NewMockDB()
	_, err := db.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	h := newTestHandler(t, db)
	admin := NewAdmin(h)

	r := newTestRouter(adminUser())
	r.GET("/api/admin/users", admin.ListUsers)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.UserItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "alice", resp.Data[0].Username)
}

func TestGetUserSettings_NoAccount(t *testing.T) {
	db := mock.NewMockDB()
	h := newTestHandler(t, db)

	r := newTestRouter(&models.User{Username: "api_key"})
	r.GET("/api/settings", h.GetUserSettings)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	db := mock.NewMockDB()
	require.NoError(t, db.CreateHistoryEvent(context.Background(), database.HistoryEvent{
		EventType: database.HistoryEventScanCompleted,
	}))
	h := newTestHandler(t, db)
	admin := NewAdmin(h)

	r := newTestRouter(adminUser())
	r.GET("/api/admin/history", admin.GetHistory)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/history", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data models.HistoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, string(database.HistoryEventScanCompleted), resp.Data.Items[0].EventType)
}
