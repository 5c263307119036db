package memos

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/dbx"
	"github.com/maoji/memos-service/internal/server/models"
)

const memoColumns = `id, content, tags, user_id, created_at, last_modified_at`

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx). Tags are stored as a jsonb array.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Memo, error) {
	query := `SELECT ` + memoColumns + ` FROM memos WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	memo, err := scanMemo(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return memo, nil
}

// List applies every filter present in f as one AND-combined WHERE clause,
// orders by created_at descending, and pages with OFFSET/LIMIT. An empty
// result is a valid outcome, returned as a nil slice.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*models.Memo, error) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Content != "" {
		clauses = append(clauses, "content ILIKE "+arg("%"+f.Content+"%"))
	}
	if f.UserID != 0 {
		clauses = append(clauses, "user_id = "+arg(f.UserID))
	}
	if f.MemoID != 0 {
		clauses = append(clauses, "id = "+arg(f.MemoID))
	}
	if f.Tag != "" {
		clauses = append(clauses, "tags @> "+arg(mustJSON([]string{f.Tag})))
	}

	query := `SELECT ` + memoColumns + ` FROM memos`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	query += " OFFSET " + arg(f.Offset) + " LIMIT " + arg(f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Memo
	for rows.Next() {
		memo, err := scanMemo(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, memo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Create inserts a new memo and returns it with the generated id.
func (r *PostgresRepository) Create(ctx context.Context, memo *models.Memo) (*models.Memo, error) {
	query := `
		INSERT INTO memos (content, tags, user_id, created_at, last_modified_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
		`

	err := r.db.QueryRowContext(ctx, query,
		memo.Content, mustJSON(memo.Tags), memo.UserID,
		memo.CreatedAt, memo.LastModified).Scan(&memo.ID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return memo, nil
}

// Update replaces content, tags, and last_modified_at of an existing memo in
// a single statement. Owner, created_at, and id are never touched.
func (r *PostgresRepository) Update(ctx context.Context, memo *models.Memo) (*models.Memo, error) {
	query := `
		UPDATE memos
		SET content = $2, tags = $3, last_modified_at = $4
		WHERE id = $1
		RETURNING ` + memoColumns

	row := r.db.QueryRowContext(ctx, query,
		memo.ID, memo.Content, mustJSON(memo.Tags), memo.LastModified)
	updated, err := scanMemo(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

// Delete removes a memo by id and returns the number of rows removed
// (0 when the memo does not exist, which is not an error).
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memos WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountByMonth(ctx context.Context, userID int64, year int) (map[int]int, error) {
	query := `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*)
		FROM memos
		WHERE user_id = $1 AND EXTRACT(YEAR FROM created_at)::int = $2
		GROUP BY month
		`

	rows, err := r.db.QueryContext(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts[month] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return counts, nil
}

func (r *PostgresRepository) CountByDay(ctx context.Context, userID int64, year int) (map[string]int, error) {
	query := `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM memos
		WHERE user_id = $1 AND EXTRACT(YEAR FROM created_at)::int = $2
		GROUP BY day
		`

	rows, err := r.db.QueryContext(ctx, query, userID, year)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			day   string
			count int
		)
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		counts[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return counts, nil
}

// scanMemo reads one memo row regardless of whether it comes from a *sql.Row
// or *sql.Rows scan function.
func scanMemo(scan func(dest ...any) error) (*models.Memo, error) {
	memo := &models.Memo{}
	var tags []byte
	if err := scan(&memo.ID, &memo.Content, &tags, &memo.UserID,
		&memo.CreatedAt, &memo.LastModified); err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &memo.Tags); err != nil {
			return nil, fmt.Errorf("tags decode error: %w", err)
		}
	}
	return memo, nil
}

// mustJSON marshals tags for the jsonb column; nil becomes the empty array.
func mustJSON(tags []string) []byte {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return b
}
