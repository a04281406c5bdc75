package filter

import (
	"slices"
	"strings"

	"callops-api/internal/models"
)

// Apply returns the subset of records satisfying every active criterion,
// preserving input order. Pure: same inputs always yield the same output,
// and the input slice is never mutated.
func Apply(records []models.CallRecord, criteria models.FilterCriteria) []models.CallRecord {
	filtered := make([]models.CallRecord, 0, len(records))
	for _, record := range records {
		if matches(record, criteria) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

func matches(r models.CallRecord, c models.FilterCriteria) bool {
	// Company membership is checked against the stable id, not the display
	// pseudonym, so pool wraparound cannot conflate two companies.
	if len(c.Companies) > 0 && !slices.Contains(c.Companies, r.CompanyID) {
		return false
	}
	if c.Department != "" && r.Department != c.Department {
		return false
	}
	if len(c.IssueTypes) > 0 && !slices.Contains(c.IssueTypes, r.IssueType) {
		return false
	}
	if c.Status != "" && r.Status != c.Status {
		return false
	}
	if !c.From.IsZero() || !c.To.IsZero() {
		// A record without a date cannot be placed in any range.
		if !r.HasDate() {
			return false
		}
		if !c.From.IsZero() && r.DateOccurred.Before(c.From) {
			return false
		}
		if !c.To.IsZero() && r.DateOccurred.After(c.To) {
			return false
		}
	}
	if c.Query != "" && !matchesQuery(r, c.Query) {
		return false
	}
	return true
}

// matchesQuery does a case-insensitive substring match over the searchable
// fields; any single hit is a match.
func matchesQuery(r models.CallRecord, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{
		r.CustomerName,
		r.CompanyName,
		r.ID,
		r.AgentName,
		r.Summary,
		r.VIN,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
