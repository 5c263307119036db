// Package repomanager hands out repositories bound to a DB handle, so
// services can run the same repository code against the pool or inside a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/maoji/memos-service/internal/dbx"
	"github.com/maoji/memos-service/internal/server/repositories/memos"
	"github.com/maoji/memos-service/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Memos(db dbx.DBTX) memos.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
