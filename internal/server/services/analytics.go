package services

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
)

// heatmapLevels caps the bucketed intensity; levels run 0..heatmapLevels.
const heatmapLevels = 4

// HeatmapDay is one day of the yearly activity heatmap.
type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// AnalyticsService derives time-series views over a user's memos.
type AnalyticsService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewAnalyticsService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *AnalyticsService {
	return &AnalyticsService{db: db, rm: rm, logger: logger}
}

// MonthlyCounts returns the user's memo count per calendar month of year,
// keyed by 0-based month index. All 12 months are present, zeros included.
func (s *AnalyticsService) MonthlyCounts(ctx context.Context, userID int64, year int) (map[int]int, error) {
	if _, err := s.rm.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	raw, err := s.rm.Memos(s.db).CountByMonth(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, 12)
	for month := 0; month < 12; month++ {
		counts[month] = raw[month+1]
	}
	return counts, nil
}

// Heatmap returns one entry per calendar day of year in ascending order:
// 365 entries, 366 in a leap year. Each entry carries the day's memo count
// and a bucketed intensity level.
func (s *AnalyticsService) Heatmap(ctx context.Context, userID int64, year int) ([]HeatmapDay, error) {
	if _, err := s.rm.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	raw, err := s.rm.Memos(s.db).CountByDay(ctx, userID, year)
	if err != nil {
		return nil, err
	}

	// Walking day by day until the year rolls over handles leap years
	// without any day-count arithmetic.
	days := make([]HeatmapDay, 0, 366)
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		count := raw[date]
		days = append(days, HeatmapDay{Date: date, Count: count, Level: heatLevel(count)})
	}
	return days, nil
}

// heatLevel buckets a daily count into a small intensity scale. The step
// function is monotonic non-decreasing and clamped to heatmapLevels.
func heatLevel(count int) int {
	if count <= 0 {
		return 0
	}
	level := int(math.Sqrt(float64(count*100))) / 10
	if level > heatmapLevels {
		level = heatmapLevels
	}
	return level
}
