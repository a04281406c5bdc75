package aggregate

import (
	"fmt"
	"math"
	"sort"

	"callops-api/internal/models"
)

// Dimension selects which canonical field CountBy tallies.
type Dimension string

const (
	ByStatus     Dimension = "status"
	ByIssueType  Dimension = "issue_type"
	ByDepartment Dimension = "department"
	ByChannel    Dimension = "channel"
)

// DayLabels is the Monday-first bucket order used by the daily trend.
var DayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// CountBy tallies records per distinct value of the chosen dimension. The
// result's key set is exactly the values observed in the input, and the
// counts sum to len(records).
func CountBy(records []models.CallRecord, dim Dimension) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		switch dim {
		case ByIssueType:
			counts[string(r.IssueType)]++
		case ByDepartment:
			counts[string(r.Department)]++
		case ByChannel:
			counts[string(r.Channel)]++
		default:
			counts[string(r.Status)]++
		}
	}
	return counts
}

// TopCompanies groups records by company, counts them and returns the n
// largest groups sorted descending. Ties keep the first-encountered order;
// n larger than the number of distinct companies returns all of them.
func TopCompanies(records []models.CallRecord, n int) []models.CompanyVolume {
	counts := make(map[int]int)
	names := make(map[int]string)
	order := make([]int, 0)
	for _, r := range records {
		if _, seen := counts[r.CompanyID]; !seen {
			order = append(order, r.CompanyID)
			names[r.CompanyID] = r.CompanyName
		}
		counts[r.CompanyID]++
	}

	volumes := make([]models.CompanyVolume, 0, len(order))
	for _, id := range order {
		volumes = append(volumes, models.CompanyVolume{
			CompanyID: id,
			Name:      names[id],
			Calls:     counts[id],
		})
	}
	sort.SliceStable(volumes, func(i, j int) bool {
		return volumes[i].Calls > volumes[j].Calls
	})

	if n >= 0 && n < len(volumes) {
		volumes = volumes[:n]
	}
	return volumes
}

// AverageDuration is the arithmetic mean of DurationMs, 0 for an empty
// collection.
func AverageDuration(records []models.CallRecord) int64 {
	if len(records) == 0 {
		return 0
	}
	var total int64
	for _, r := range records {
		total += r.DurationMs
	}
	return total / int64(len(records))
}

// FormatDuration renders milliseconds as M:SS, or H:MM:SS once there is a
// whole hour.
func FormatDuration(ms int64) string {
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// PercentageOf guards the zero-total case so chart data never carries NaN
// or Inf. Rounded to one decimal place.
func PercentageOf(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

// BucketByDay assigns each dated record to exactly one day-of-week bucket.
// days is a Monday-first label list; pass nil for the default. Records
// without a date are excluded from every bucket.
func BucketByDay(records []models.CallRecord, days []string) []models.DayBucket {
	if len(days) == 0 {
		days = DayLabels
	}
	buckets := make([]models.DayBucket, len(days))
	for i, day := range days {
		buckets[i] = models.DayBucket{Day: day}
	}
	for _, r := range records {
		if !r.HasDate() {
			continue
		}
		// time.Weekday is Sunday-first; shift to Monday-first.
		idx := (int(r.DateOccurred.Weekday()) + 6) % 7
		if idx >= len(buckets) {
			continue
		}
		buckets[idx].Calls++
		if r.Status == models.StatusCompleted {
			buckets[idx].Completed++
		}
	}
	return buckets
}

// BuildView composes the derived views every dashboard page consumes from
// one filtered collection.
func BuildView(records []models.CallRecord, topN int) models.AggregatedView {
	statusCounts := CountBy(records, ByStatus)
	breakdown := make([]models.StatusSlice, 0, len(statusCounts))
	for _, status := range []models.CallStatus{models.StatusCompleted, models.StatusPending, models.StatusIssue} {
		count, ok := statusCounts[string(status)]
		if !ok {
			continue
		}
		breakdown = append(breakdown, models.StatusSlice{
			Name:       string(status),
			Count:      count,
			Percentage: PercentageOf(count, len(records)),
		})
	}

	return models.AggregatedView{
		StatusBreakdown: breakdown,
		IssueTypeCounts: CountBy(records, ByIssueType),
		TopCompanies:    TopCompanies(records, topN),
		AvgDuration:     FormatDuration(AverageDuration(records)),
		DailyTrend:      BucketByDay(records, nil),
	}
}
