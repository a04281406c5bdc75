package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"callops-api/internal/aggregate"
	"callops-api/internal/client"
	"callops-api/internal/config"
	"callops-api/internal/export"
	"callops-api/internal/filter"
	"callops-api/internal/models"
	"callops-api/internal/normalizer"
	"callops-api/internal/storage"
)

type Handler struct {
	config     *config.Config
	client     *client.CallListClient
	normalizer *normalizer.Normalizer
	store      *storage.MemoryStore
	exporter   *export.Exporter
	logger     *logrus.Logger
}

func New(cfg *config.Config, callClient *client.CallListClient, norm *normalizer.Normalizer,
	store *storage.MemoryStore, exporter *export.Exporter, logger *logrus.Logger) *Handler {
	return &Handler{
		config:     cfg,
		client:     callClient,
		normalizer: norm,
		store:      store,
		exporter:   exporter,
		logger:     logger,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "callops-api",
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store.HasData() {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"has_data":    true,
			"last_ingest": h.store.GetLastIngestTime().Format(time.RFC3339),
		})
	} else {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"has_data": false,
			"message":  "No call data ingested yet",
		})
	}
}

// IngestData fetches the upstream call list, normalizes it and swaps it into
// the store. The load id is reserved before the fetch so that of two
// overlapping ingests only the most recently started one lands.
func (h *Handler) IngestData(c *gin.Context) {
	startTime := time.Now()

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	loadID := h.store.BeginLoad()
	h.logger.WithField("load_id", loadID).Info("Starting call list ingestion")

	resp, err := h.client.FetchCallList(c.Request.Context(), from, to)
	if err != nil {
		// The previously loaded collection stays visible.
		h.logger.WithError(err).Error("Failed to fetch call list")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch call list"})
		return
	}

	records := h.normalizer.NormalizeAll(resp.Data)
	upstream := models.UpstreamCounts{
		Total:     resp.Total,
		Completed: resp.Completed,
		Pending:   resp.Pending,
		Error:     resp.Error,
	}

	if !h.store.CompleteLoad(loadID, records, upstream) {
		h.logger.WithField("load_id", loadID).Warn("Discarding stale ingest result")
		c.JSON(http.StatusOK, models.IngestResponse{
			Status:      "stale",
			Records:     len(records),
			ProcessedAt: time.Now().Format(time.RFC3339),
			Message:     "Result superseded by a newer ingest",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"load_id":     loadID,
		"records":     len(records),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Call list ingestion completed")

	c.JSON(http.StatusOK, models.IngestResponse{
		Status:      "success",
		Records:     len(records),
		ProcessedAt: time.Now().Format(time.RFC3339),
		Message:     "Call list ingested and normalized",
	})
}

// GetCalls returns the filtered call list, paginated.
func (h *Handler) GetCalls(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	filtered := filter.Apply(h.store.GetRecords(), criteria)

	total := len(filtered)
	start := offset
	end := offset + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, models.CallListPage{
		Data:    filtered[start:end],
		Total:   total,
		Page:    offset/limit + 1,
		Limit:   limit,
		HasMore: end < total,
	})
}

// GetStats returns the dashboard stat cards for the filtered collection,
// alongside the aggregate counts the upstream reported at ingest time.
func (h *Handler) GetStats(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}

	filtered := filter.Apply(h.store.GetRecords(), criteria)
	counts := aggregate.CountBy(filtered, aggregate.ByStatus)

	stats := models.DashboardStats{
		TotalCalls:     len(filtered),
		CompletedCalls: counts[string(models.StatusCompleted)],
		PendingCalls:   counts[string(models.StatusPending)],
		Issues:         counts[string(models.StatusIssue)],
		Upstream:       h.store.GetUpstreamCounts(),
	}
	if h.store.HasData() {
		stats.LastIngest = h.store.GetLastIngestTime().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}

// GetAnalytics returns the full aggregated view: status and issue-type
// distributions, top companies, average duration and the daily trend.
func (h *Handler) GetAnalytics(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 {
		limit = 10
	}

	filtered := filter.Apply(h.store.GetRecords(), criteria)
	c.JSON(http.StatusOK, aggregate.BuildView(filtered, limit))
}

// GetCompanies returns per-company rollups over the canonical collection,
// sorted by display name.
func (h *Handler) GetCompanies(c *gin.Context) {
	records := h.store.GetRecords()

	byID := make(map[int]*models.CompanyStats)
	for _, record := range records {
		stats, ok := byID[record.CompanyID]
		if !ok {
			stats = &models.CompanyStats{
				CompanyID: record.CompanyID,
				Name:      record.CompanyName,
			}
			byID[record.CompanyID] = stats
		}
		stats.TotalCalls++
		switch record.Status {
		case models.StatusCompleted:
			stats.CompletedCalls++
		case models.StatusIssue:
			stats.Issues++
		}
	}

	companies := make([]models.CompanyStats, 0, len(byID))
	for _, stats := range byID {
		companies = append(companies, *stats)
	}
	sort.Slice(companies, func(i, j int) bool {
		return companies[i].Name < companies[j].Name
	})

	c.JSON(http.StatusOK, gin.H{
		"data":  companies,
		"total": len(companies),
	})
}

// ExportCalls streams the filtered call list as an XLSX workbook.
func (h *Handler) ExportCalls(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}

	filtered := filter.Apply(h.store.GetRecords(), criteria)
	buf, err := h.exporter.WriteCalls(filtered)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build export workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export call logs"})
		return
	}

	filename := "call-logs-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// parseCriteria builds FilterCriteria from query parameters. Absent params
// leave their dimension unrestricted. Writes the 400 response itself and
// returns false on invalid input.
func parseCriteria(c *gin.Context) (models.FilterCriteria, bool) {
	var criteria models.FilterCriteria

	if raw := c.Query("companies"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id: " + part})
				return criteria, false
			}
			criteria.Companies = append(criteria.Companies, id)
		}
	}

	if raw := c.Query("department"); raw != "" {
		dept := models.Department(raw)
		if !models.ValidDepartment(dept) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown department: " + raw})
			return criteria, false
		}
		criteria.Department = dept
	}

	if raw := c.Query("issue_types"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			issueType := models.IssueType(strings.TrimSpace(part))
			if !models.ValidIssueType(issueType) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown issue type: " + part})
				return criteria, false
			}
			criteria.IssueTypes = append(criteria.IssueTypes, issueType)
		}
	}

	if raw := c.Query("status"); raw != "" {
		status := models.CallStatus(raw)
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + raw})
			return criteria, false
		}
		criteria.Status = status
	}

	criteria.Query = c.Query("q")

	from, to, ok := parseDateRange(c)
	if !ok {
		return criteria, false
	}
	criteria.From = from
	criteria.To = to

	return criteria, true
}

// parseDateRange reads optional from/to params. The to bound is widened to
// the end of its day so the range stays inclusive.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date format, use YYYY-MM-DD"})
			return from, to, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date format, use YYYY-MM-DD"})
			return from, to, false
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, true
}
