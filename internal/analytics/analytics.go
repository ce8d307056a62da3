// Package analytics produces the dashboard traffic series. Visits and views are synthetic but
// deterministic per calendar day; inquiries come from the store.
package analytics

import (
	"fmt"
	"time"
)

const (
	DefaultDays = 30
	MaxDays     = 365

	dayLayout = "2006-01-02"
)

// InquiryCounter counts stored inquiries per day (YYYY-MM-DD)
type InquiryCounter interface {
	CountInquiriesByDay(from time.Time) (map[string]int64, error)
}

type DayPoint struct {
	Date          string `json:"date"`
	Visits        int64  `json:"visits"`
	PropertyViews int64  `json:"property_views"`
	Inquiries     int64  `json:"inquiries"`
}

type Summary struct {
	Days           int        `json:"days"`
	TotalVisits    int64      `json:"total_visits"`
	TotalViews     int64      `json:"total_property_views"`
	TotalInquiries int64      `json:"total_inquiries"`
	ConversionRate float64    `json:"conversion_rate"`
	Series         []DayPoint `json:"series"`
}

// Build returns a series of days points ending at now's calendar day (UTC)
func Build(counter InquiryCounter, days int, now time.Time) (*Summary, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}

	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))

	counts, err := counter.CountInquiriesByDay(start)
	if err != nil {
		return nil, fmt.Errorf("failed to load inquiry counts: %w", err)
	}

	summary := &Summary{Days: days, Series: make([]DayPoint, 0, days)}
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		point := DayPoint{
			Date:          day.Format(dayLayout),
			Visits:        Visits(day),
			PropertyViews: PropertyViews(day),
			Inquiries:     counts[day.Format(dayLayout)],
		}
		summary.TotalVisits += point.Visits
		summary.TotalViews += point.PropertyViews
		summary.TotalInquiries += point.Inquiries
		summary.Series = append(summary.Series, point)
	}

	if summary.TotalVisits > 0 {
		summary.ConversionRate = float64(summary.TotalInquiries) / float64(summary.TotalVisits)
	}
	return summary, nil
}

func dayIndex(day time.Time) int64 {
	return day.UTC().Unix() / 86400
}

// Visits is a weekly wave on a slow upward trend
func Visits(day time.Time) int64 {
	idx := dayIndex(day)
	weekly := []int64{0, 40, 55, 60, 52, 35, -20}[idx%7]
	return 180 + weekly + (idx%90)*2 + (idx*37)%23
}

// PropertyViews is roughly two views per visit
func PropertyViews(day time.Time) int64 {
	idx := dayIndex(day)
	return Visits(day)*2 + (idx*53)%41
}
