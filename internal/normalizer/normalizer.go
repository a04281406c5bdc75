package normalizer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"callops-api/internal/models"
	"callops-api/internal/pseudonym"
)

// dateFormats accepted from upstream date fields, tried in order.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer converts raw upstream records into canonical CallRecords. It is
// total: any field it cannot interpret degrades to its documented default, so
// one malformed record never aborts a batch.
type Normalizer struct {
	cache *pseudonym.Cache
}

func New(cache *pseudonym.Cache) *Normalizer {
	return &Normalizer{cache: cache}
}

func (n *Normalizer) NormalizeAll(records []models.RawCallRecord) []models.CallRecord {
	normalized := make([]models.CallRecord, 0, len(records))
	for _, raw := range records {
		normalized = append(normalized, n.Normalize(raw))
	}
	return normalized
}

// Normalize produces exactly one CallRecord and calls the pseudonym cache
// exactly once, for the company name.
func (n *Normalizer) Normalize(raw models.RawCallRecord) models.CallRecord {
	var cd models.RawCustomerData
	if raw.CustomerData != nil {
		cd = *raw.CustomerData
	}

	companyID, companyName := n.cache.Assign(rawString(cd.CompanyName, raw.CompanyName))

	return models.CallRecord{
		ID:            recordID(raw.ID),
		CompanyID:     companyID,
		CompanyName:   companyName,
		CustomerName:  stringField(cd.CustomerName, raw.CustomerName),
		PhoneNumber:   stringField(cd.PhoneNumber, raw.PhoneNumber),
		AgentName:     stringField(raw.AgentName),
		Summary:       stringField(raw.Summary),
		VIN:           stringField(cd.VINNumber, raw.VIN),
		DateOccurred:  parseDate(raw.Date),
		DurationMs:    durationMs(raw.Duration),
		Status:        normalizeStatus(raw.Status, raw.Success),
		IssueType:     normalizeIssueType(raw.IssueType),
		Department:    normalizeDepartment(raw.Department),
		Channel:       normalizeChannel(raw.CallType),
		HasTranscript: cast.ToBool(raw.HasTranscript),
	}
}

// stringField walks candidates in precedence order and returns the first
// usable value, or the NotProvided sentinel.
func stringField(candidates ...any) string {
	for _, c := range candidates {
		s := strings.TrimSpace(cast.ToString(c))
		if !models.MissingValue(s) {
			return s
		}
	}
	return models.NotProvided
}

// rawString is stringField without the sentinel default, for values whose
// missing case is handled downstream (the pseudonym cache).
func rawString(candidates ...any) string {
	for _, c := range candidates {
		s := strings.TrimSpace(cast.ToString(c))
		if !models.MissingValue(s) {
			return s
		}
	}
	return ""
}

func recordID(v any) string {
	if s := strings.TrimSpace(cast.ToString(v)); !models.MissingValue(s) {
		return s
	}
	return uuid.NewString()
}

// durationMs accepts only non-negative numeric milliseconds. Strings,
// negatives and NaN all normalize to 0.
func durationMs(v any) int64 {
	switch d := v.(type) {
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return 0
		}
		return int64(d)
	case float32:
		if d < 0 {
			return 0
		}
		return int64(d)
	case int:
		if d < 0 {
			return 0
		}
		return int64(d)
	case int64:
		if d < 0 {
			return 0
		}
		return d
	default:
		return 0
	}
}

// parseDate understands the two upstream encodings: epoch milliseconds and
// ISO date strings. Anything else yields the zero time (absent).
func parseDate(v any) time.Time {
	switch d := v.(type) {
	case float64:
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return time.Time{}
		}
		return time.UnixMilli(int64(d)).UTC()
	case int:
		if d <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(int64(d)).UTC()
	case int64:
		if d <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(d).UTC()
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// normalizeStatus applies the canonical mapping: "ended" becomes completed,
// canonical statuses pass through, anything else falls back to the upstream
// success flag when one is present, and finally to completed.
func normalizeStatus(status, success any) models.CallStatus {
	s := models.CallStatus(strings.ToLower(strings.TrimSpace(cast.ToString(status))))
	if s == "ended" {
		return models.StatusCompleted
	}
	if models.ValidStatus(s) {
		return s
	}
	if ok, isBool := success.(bool); isBool {
		if ok {
			return models.StatusCompleted
		}
		return models.StatusIssue
	}
	return models.StatusCompleted
}

func normalizeIssueType(v any) models.IssueType {
	t := models.IssueType(strings.ToLower(strings.TrimSpace(cast.ToString(v))))
	if models.ValidIssueType(t) {
		return t
	}
	return models.IssueGeneral
}

func normalizeDepartment(v any) models.Department {
	d := models.Department(strings.ToLower(strings.TrimSpace(cast.ToString(v))))
	if models.ValidDepartment(d) {
		return d
	}
	return models.DeptRetail
}

func normalizeChannel(v any) models.Channel {
	switch strings.ToLower(strings.TrimSpace(cast.ToString(v))) {
	case "web_call", "web":
		return models.ChannelWeb
	default:
		return models.ChannelPhone
	}
}
