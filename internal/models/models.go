package models

import (
	"strings"
	"time"
)

// Canonical enumerations. Normalization is the only place raw upstream
// strings are translated into these closed sets.
type CallStatus string

const (
	StatusCompleted CallStatus = "completed"
	StatusPending   CallStatus = "pending"
	StatusIssue     CallStatus = "issue"
)

type IssueType string

const (
	IssueParts    IssueType = "parts"
	IssueMotor    IssueType = "motor"
	IssueWarranty IssueType = "warranty"
	IssueGeneral  IssueType = "general"
	IssueBilling  IssueType = "billing"
)

type Department string

const (
	DeptRetail       Department = "retail"
	DeptService      Department = "service"
	DeptMaintenance  Department = "maintenance"
	DeptCompliance   Department = "compliance"
	DeptClaims       Department = "claims"
	DeptManufacturer Department = "manufacturer"
)

type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelWeb   Channel = "web"
)

// NotProvided is the uniform display value for missing string fields.
// Canonical records never carry "" or upstream placeholder junk.
const NotProvided = "Not provided"

// missingValues are the upstream placeholder strings treated as "no value".
// They must never surface as distinct display values.
var missingValues = []string{"", "n/a", "unknown", "not provided", "null", "undefined"}

// MissingValue reports whether an upstream string is equivalent to a missing
// field, for both display defaulting and pseudonym keying.
func MissingValue(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, m := range missingValues {
		if strings.EqualFold(trimmed, m) {
			return true
		}
	}
	return false
}

func ValidStatus(s CallStatus) bool {
	return s == StatusCompleted || s == StatusPending || s == StatusIssue
}

func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueParts, IssueMotor, IssueWarranty, IssueGeneral, IssueBilling:
		return true
	}
	return false
}

func ValidDepartment(d Department) bool {
	switch d {
	case DeptRetail, DeptService, DeptMaintenance, DeptCompliance, DeptClaims, DeptManufacturer:
		return true
	}
	return false
}

// Upstream response structures

type CallListResponse struct {
	Data      []RawCallRecord `json:"data"`
	Total     int             `json:"total"`
	Completed int             `json:"completed"`
	Pending   int             `json:"pending"`
	Error     int             `json:"error"`
}

// RawCallRecord is the loosely-typed bag the upstream source returns. Field
// values arrive with inconsistent types (numbers as strings, missing keys,
// nulls), so everything is decoded as any and coerced by the normalizer.
type RawCallRecord struct {
	ID            any              `json:"id"`
	CompanyName   any              `json:"companyName"`
	CustomerName  any              `json:"customerName"`
	PhoneNumber   any              `json:"phoneNumber"`
	AgentName     any              `json:"agentName"`
	Summary       any              `json:"summary"`
	Date          any              `json:"date"`
	Duration      any              `json:"duration"`
	Status        any              `json:"status"`
	IssueType     any              `json:"issueType"`
	Department    any              `json:"department"`
	VIN           any              `json:"vin"`
	CallType      any              `json:"callType"`
	Success       any              `json:"success"`
	HasTranscript any              `json:"hasTranscript"`
	CustomerData  *RawCustomerData `json:"customerData"`
}

// RawCustomerData is the nested sub-object some upstream records carry. Its
// fields take precedence over the top-level ones.
type RawCustomerData struct {
	CompanyName  any `json:"companyName"`
	CustomerName any `json:"customerName"`
	PhoneNumber  any `json:"phoneNumber"`
	VINNumber    any `json:"vinNumber"`
}

// CallRecord is the canonical, post-normalization record. The collections
// built from it are treated as immutable; filtering and aggregation only
// derive from them.
type CallRecord struct {
	ID            string     `json:"id"`
	CompanyID     int        `json:"company_id"`
	CompanyName   string     `json:"company_name"`
	CustomerName  string     `json:"customer_name"`
	PhoneNumber   string     `json:"phone_number"`
	AgentName     string     `json:"agent_name"`
	Summary       string     `json:"summary"`
	VIN           string     `json:"vin"`
	DateOccurred  time.Time  `json:"date_occurred"`
	DurationMs    int64      `json:"duration_ms"`
	Status        CallStatus `json:"status"`
	IssueType     IssueType  `json:"issue_type"`
	Department    Department `json:"department"`
	Channel       Channel    `json:"channel"`
	HasTranscript bool       `json:"has_transcript"`
}

// HasDate reports whether the record carries a usable occurrence time.
// Absence is representable (zero time) and must never crash formatting.
func (r CallRecord) HasDate() bool {
	return !r.DateOccurred.IsZero()
}

// FilterCriteria is one view's selection state. Every dimension is optional;
// an empty selector means "no restriction", never "match nothing".
type FilterCriteria struct {
	Companies  []int
	Department Department
	IssueTypes []IssueType
	Status     CallStatus
	Query      string
	From       time.Time
	To         time.Time
}

// Derived view structures

type StatusSlice struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type CompanyVolume struct {
	CompanyID int    `json:"company_id"`
	Name      string `json:"name"`
	Calls     int    `json:"calls"`
}

type DayBucket struct {
	Day       string `json:"day"`
	Calls     int    `json:"calls"`
	Completed int    `json:"completed"`
}

type AggregatedView struct {
	StatusBreakdown []StatusSlice   `json:"status_breakdown"`
	IssueTypeCounts map[string]int  `json:"issue_type_counts"`
	TopCompanies    []CompanyVolume `json:"top_companies"`
	AvgDuration     string          `json:"avg_duration"`
	DailyTrend      []DayBucket     `json:"daily_trend"`
}

type CompanyStats struct {
	CompanyID      int    `json:"company_id"`
	Name           string `json:"name"`
	TotalCalls     int    `json:"total_calls"`
	CompletedCalls int    `json:"completed_calls"`
	Issues         int    `json:"issues"`
}

// API response structures

type UpstreamCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Error     int `json:"error"`
}

type CallListPage struct {
	Data    []CallRecord `json:"data"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
	HasMore bool         `json:"has_more"`
}

type DashboardStats struct {
	TotalCalls     int            `json:"total_calls"`
	CompletedCalls int            `json:"completed_calls"`
	PendingCalls   int            `json:"pending_calls"`
	Issues         int            `json:"issues"`
	Upstream       UpstreamCounts `json:"upstream"`
	LastIngest     string         `json:"last_ingest,omitempty"`
}

type IngestResponse struct {
	Status      string `json:"status"`
	Records     int    `json:"records"`
	ProcessedAt string `json:"processed_at"`
	Message     string `json:"message"`
}
