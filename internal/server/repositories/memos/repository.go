// Package memos provides the PostgreSQL-backed memo store: point lookups,
// dynamically filtered listing, upsert primitives, delete, and the
// aggregation queries behind the analytics views.
package memos

import (
	"context"

	"github.com/maoji/memos-service/internal/server/models"
)

// Filter is the resolved listing filter handed to the store. All fields are
// optional; zero values disable the corresponding clause. Username filters
// are resolved to a UserID by the service layer before reaching here.
type Filter struct {
	Content string
	UserID  int64
	MemoID  int64
	Tag     string
	Offset  int
	Limit   int
}

// Repository is the persistence contract for memo records.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*models.Memo, error)
	List(ctx context.Context, f Filter) ([]*models.Memo, error)
	Create(ctx context.Context, memo *models.Memo) (*models.Memo, error)
	Update(ctx context.Context, memo *models.Memo) (*models.Memo, error)
	Delete(ctx context.Context, id int64) (int64, error)

	// CountByMonth returns memo counts for the user keyed by calendar month
	// (1-12); months with no memos are absent.
	CountByMonth(ctx context.Context, userID int64, year int) (map[int]int, error)

	// CountByDay returns memo counts for the user keyed by "YYYY-MM-DD";
	// days with no memos are absent.
	CountByDay(ctx context.Context, userID int64, year int) (map[string]int, error)
}
