package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callops-api/internal/client"
	"callops-api/internal/config"
	"callops-api/internal/export"
	"callops-api/internal/models"
	"callops-api/internal/normalizer"
	"callops-api/internal/pseudonym"
	"callops-api/internal/storage"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRouter(upstreamURL string, store *storage.MemoryStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := testLogger()
	cfg := &config.Config{
		UpstreamAPIURL:  upstreamURL,
		Port:            "0",
		HTTPTimeout:     5 * time.Second,
		RetryMaxElapsed: time.Second,
	}

	handler := New(cfg,
		client.NewCallListClient(cfg, logger),
		normalizer.New(pseudonym.NewCache()),
		store,
		export.NewExporter(logger),
		logger,
	)

	router := gin.New()
	router.GET("/healthz", handler.HealthCheck)
	router.GET("/readyz", handler.ReadinessCheck)
	router.POST("/ingest/run", handler.IngestData)
	router.GET("/calls", handler.GetCalls)
	router.GET("/stats", handler.GetStats)
	router.GET("/analytics", handler.GetAnalytics)
	router.GET("/companies", handler.GetCompanies)
	router.GET("/export/calls", handler.ExportCalls)
	return router
}

func seedStore(store *storage.MemoryStore, records []models.CallRecord, upstream models.UpstreamCounts) {
	store.CompleteLoad(store.BeginLoad(), records, upstream)
}

func seededRecords() []models.CallRecord {
	date := time.Date(2024, time.May, 13, 9, 0, 0, 0, time.UTC)
	return []models.CallRecord{
		{ID: "CALL-001", CompanyID: 1, CompanyName: "Acme RV Sales Co.", CustomerName: "James Smith",
			Status: models.StatusCompleted, IssueType: models.IssueWarranty,
			Department: models.DeptService, Channel: models.ChannelPhone,
			DurationMs: 60000, DateOccurred: date},
		{ID: "CALL-002", CompanyID: 2, CompanyName: "Global RV Center", CustomerName: "Mary Jones",
			Status: models.StatusPending, IssueType: models.IssueParts,
			Department: models.DeptRetail, Channel: models.ChannelWeb,
			DurationMs: 120000},
		{ID: "CALL-003", CompanyID: 1, CompanyName: "Acme RV Sales Co.", CustomerName: "John Garcia",
			Status: models.StatusIssue, IssueType: models.IssueMotor,
			Department: models.DeptService, Channel: models.ChannelPhone,
			DurationMs: 180000},
	}
}

func doRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter("http://unused", storage.NewMemoryStore())
	w := doRequest(router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessBeforeAndAfterIngest(t *testing.T) {
	store := storage.NewMemoryStore()
	router := newTestRouter("http://unused", store)

	assert.Equal(t, http.StatusServiceUnavailable, doRequest(router, http.MethodGet, "/readyz").Code)

	seedStore(store, seededRecords(), models.UpstreamCounts{})
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/readyz").Code)
}

func TestGetCallsFiltered(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/calls?department=service&status=issue")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.CallListPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "CALL-003", page.Data[0].ID)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasMore)
}

func TestGetCallsPagination(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/calls?limit=2&offset=0")
	require.Equal(t, http.StatusOK, w.Code)

	var page models.CallListPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
}

func TestGetCallsRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter("http://unused", storage.NewMemoryStore())
	w := doRequest(router, http.MethodGet, "/calls?status=exploded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCallsRejectsBadDate(t *testing.T) {
	router := newTestRouter("http://unused", storage.NewMemoryStore())
	w := doRequest(router, http.MethodGet, "/calls?from=May+13")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStats(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{Total: 3, Completed: 1})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalCalls)
	assert.Equal(t, 1, stats.CompletedCalls)
	assert.Equal(t, 1, stats.PendingCalls)
	assert.Equal(t, 1, stats.Issues)
	assert.Equal(t, 3, stats.Upstream.Total)
	assert.NotEmpty(t, stats.LastIngest)
}

func TestGetAnalytics(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/analytics?limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var view models.AggregatedView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.TopCompanies, 1)
	assert.Equal(t, 1, view.TopCompanies[0].CompanyID)
	assert.Equal(t, 2, view.TopCompanies[0].Calls)
	assert.Equal(t, "2:00", view.AvgDuration)
	assert.Len(t, view.DailyTrend, 7)
}

func TestGetCompanies(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/companies")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data  []models.CompanyStats `json:"data"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	// Sorted by display name.
	assert.Equal(t, "Acme RV Sales Co.", resp.Data[0].Name)
	assert.Equal(t, 2, resp.Data[0].TotalCalls)
	assert.Equal(t, 1, resp.Data[0].CompletedCalls)
	assert.Equal(t, 1, resp.Data[0].Issues)
}

func TestIngestRun(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get-call-list", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "CALL-100", "companyName": "Camping World", "status": "ended", "duration": 60000},
				{"id": "CALL-101", "companyName": "Camping World", "status": "error", "success": false},
			},
			"total":     2,
			"completed": 1,
			"pending":   0,
			"error":     1,
		})
	}))
	defer upstream.Close()

	store := storage.NewMemoryStore()
	router := newTestRouter(upstream.URL, store)

	w := doRequest(router, http.MethodPost, "/ingest/run")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.Records)

	records := store.GetRecords()
	require.Len(t, records, 2)
	assert.Equal(t, models.StatusCompleted, records[0].Status)
	assert.Equal(t, models.StatusIssue, records[1].Status)
	// Both calls reference the same real company.
	assert.Equal(t, records[0].CompanyID, records[1].CompanyID)
	assert.Equal(t, 2, store.GetUpstreamCounts().Total)
}

func TestIngestDelegatesDateRangeAsEpochMillis(t *testing.T) {
	var gotFrom, gotTo string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFrom = r.URL.Query().Get("from")
		gotTo = r.URL.Query().Get("to")
		json.NewEncoder(w).Encode(models.CallListResponse{})
	}))
	defer upstream.Close()

	store := storage.NewMemoryStore()
	router := newTestRouter(upstream.URL, store)

	w := doRequest(router, http.MethodPost, "/ingest/run?from=2024-05-01&to=2024-05-31")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "1714521600000", gotFrom)
	// The to bound is inclusive through end of day.
	assert.Equal(t, "1717199999999", gotTo)
}

func TestIngestFailureKeepsPreviousCollection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer upstream.Close()

	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{Total: 3})
	router := newTestRouter(upstream.URL, store)

	w := doRequest(router, http.MethodPost, "/ingest/run")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	// The previously loaded collection stays visible.
	assert.Len(t, store.GetRecords(), 3)
}

func TestExportCalls(t *testing.T) {
	store := storage.NewMemoryStore()
	seedStore(store, seededRecords(), models.UpstreamCounts{})
	router := newTestRouter("http://unused", store)

	w := doRequest(router, http.MethodGet, "/export/calls?department=service")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
