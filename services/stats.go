package services

import (
	"context"
	"strings"
	"time"

	"safecampus/models"
)

const (
	recentReportsLimit = 5
	weekWindow         = 7 * 24 * time.Hour
)

type reportLister interface {
	ListOldestFirst(ctx context.Context) ([]models.Report, error)
}

// StatsService computes the admin dashboard aggregates.
type StatsService struct {
	reports reportLister
	now     func() time.Time
}

func NewStatsService(reports reportLister) *StatsService {
	return &StatsService{reports: reports, now: time.Now}
}

// Compute aggregates every stored report. Groupings keep the order in which
// each key was first seen while walking reports oldest first.
func (s *StatsService) Compute(ctx context.Context) (*models.Stats, error) {
	reports, err := s.reports.ListOldestFirst(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate(reports, s.now()), nil
}

func aggregate(reports []models.Report, now time.Time) *models.Stats {
	weekAgo := now.Add(-weekWindow)
	byType := newCounter()
	byUniversity := newCounter()

	stats := &models.Stats{TotalReports: len(reports)}
	for _, r := range reports {
		if !r.Timestamp.Before(weekAgo) {
			stats.ReportsThisWeek++
		}
		byType.add(TypeDisplayName(r.Type))
		byUniversity.add(UniversityDisplayName(r.University))
	}
	stats.ReportsByType = byType.values()
	stats.ReportsByUniversity = byUniversity.values()

	recent := make([]models.Report, 0, recentReportsLimit)
	for i := len(reports) - 1; i >= 0 && len(recent) < recentReportsLimit; i-- {
		recent = append(recent, reports[i])
	}
	stats.RecentReports = recent

	return stats
}

// TypeDisplayName renders a report type for the dashboard: dashes become
// spaces and the first letter of each word is capitalised.
func TypeDisplayName(t string) string {
	if t == "" {
		t = models.DefaultType
	}
	b := []byte(strings.ReplaceAll(t, "-", " "))
	prevWord := false
	for i, c := range b {
		word := isWordChar(c)
		if word && !prevWord && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		prevWord = word
	}
	return string(b)
}

// UniversityDisplayName renders a university code for the dashboard.
func UniversityDisplayName(u string) string {
	if u == "" || u == models.DefaultUniversity {
		return "Not Specified"
	}
	return strings.ToUpper(u)
}

func isWordChar(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

type counter struct {
	order []string
	count map[string]int
}

func newCounter() *counter {
	return &counter{count: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.count[key]; !ok {
		c.order = append(c.order, key)
	}
	c.count[key]++
}

func (c *counter) values() []models.NameValue {
	out := make([]models.NameValue, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, models.NameValue{Name: k, Value: c.count[k]})
	}
	return out
}
