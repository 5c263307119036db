// Package services contains the server-side business logic: accounts and
// sessions, memo CRUD with ownership enforcement, usage analytics, and the
// e-mail recovery flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
)

// Authorizer is the single ownership decision point. Every mutating path
// (memo upsert, memo delete, account update) asks it instead of re-deriving
// the check.
type Authorizer struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

func NewAuthorizer(db *sql.DB, rm repomanager.RepositoryManager) *Authorizer {
	return &Authorizer{db: db, rm: rm}
}

// CanMutate returns nil iff callerUsername names the user identified by
// ownerUserID. The two failure shapes are distinct: common.ErrNotFound when
// the owner cannot be resolved (a data-integrity problem), and
// common.ErrUnauthorized when the caller is simply not the owner.
func (a *Authorizer) CanMutate(ctx context.Context, callerUsername string, ownerUserID int64) error {
	owner, err := a.rm.Users(a.db).GetByID(ctx, ownerUserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("resource owner %d: %w", ownerUserID, common.ErrNotFound)
		}
		return fmt.Errorf("resolving resource owner: %w", err)
	}
	if owner.Username != callerUsername {
		return common.ErrUnauthorized
	}
	return nil
}
