package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/models"
	"github.com/maoji/memos-service/internal/server/repositories/memos"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
)

// MemoService orchestrates memo reads and writes, routing every mutation
// through the Authorizer.
type MemoService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	authz  *Authorizer
	logger logging.Logger
	now    func() time.Time
}

func NewMemoService(db *sql.DB, rm repomanager.RepositoryManager, authz *Authorizer,
	logger logging.Logger) *MemoService {
	return &MemoService{
		db:     db,
		rm:     rm,
		authz:  authz,
		logger: logger,
		now:    time.Now,
	}
}

func (s *MemoService) GetByID(ctx context.Context, id int64) (*models.Memo, error) {
	return s.rm.Memos(s.db).GetByID(ctx, id)
}

// List returns one page of memos matching every filter present in q, newest
// first. A username filter is resolved to a user id first; when the named
// user does not exist the filter is dropped rather than failing the query.
// An empty page is a valid, non-error outcome.
func (s *MemoService) List(ctx context.Context, q models.Query) ([]*models.Memo, error) {
	q.Normalize()

	f := memos.Filter{
		Content: q.Content,
		UserID:  q.UserID,
		MemoID:  q.MemoID,
		Tag:     q.Tag,
		Offset:  (q.Page - 1) * q.PageSize,
		Limit:   q.PageSize,
	}

	if q.Username != "" {
		user, err := s.rm.Users(s.db).GetByUsername(ctx, q.Username)
		switch {
		case err == nil:
			if f.UserID != 0 && f.UserID != user.ID {
				// Both filters present and naming different users: no memo
				// can satisfy the conjunction.
				return nil, nil
			}
			f.UserID = user.ID
		case errors.Is(err, common.ErrNotFound):
			s.logger.Debug(ctx, "dropping username filter, no such user", "username", q.Username)
		default:
			return nil, err
		}
	}

	return s.rm.Memos(s.db).List(ctx, f)
}

// Upsert creates or updates a memo.
//
// When memo.ID identifies an existing record this is an update: the caller
// must own the memo, and only content, tags, and the last-modified stamp are
// replaced. Otherwise it is a create: the declared owner must exist and,
// when the call is authenticated (caller non-empty), must be the caller.
func (s *MemoService) Upsert(ctx context.Context, memo *models.Memo, caller string) (*models.Memo, error) {
	memosRepo := s.rm.Memos(s.db)
	now := s.now()

	if memo.ID != 0 {
		existing, err := memosRepo.GetByID(ctx, memo.ID)
		switch {
		case err == nil:
			if err := s.authz.CanMutate(ctx, caller, existing.UserID); err != nil {
				return nil, err
			}
			memo.LastModified = now
			updated, err := memosRepo.Update(ctx, memo)
			if err != nil {
				return nil, err
			}
			s.logger.Info(ctx, "memo updated", "memo_id", updated.ID, "user_id", updated.UserID)
			return updated, nil
		case errors.Is(err, common.ErrNotFound):
			// fall through to create with the declared id ignored
		default:
			return nil, err
		}
	}

	owner, err := s.rm.Users(s.db).GetByID(ctx, memo.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("memo owner %d: %w", memo.UserID, common.ErrNotFound)
		}
		return nil, err
	}
	if caller != "" && owner.Username != caller {
		return nil, common.ErrUnauthorized
	}

	memo.ID = 0
	memo.CreatedAt = now
	memo.LastModified = now
	created, err := memosRepo.Create(ctx, memo)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "memo created", "memo_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// CreateByExternalID posts a memo on behalf of the user bound to externalID.
// This is the unauthenticated bot path: the external id binding itself is the
// credential, so the create skips the caller check.
func (s *MemoService) CreateByExternalID(ctx context.Context, externalID, content string) (*models.Memo, error) {
	user, err := s.rm.Users(s.db).GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("external id not bound: %w", common.ErrNotFound)
		}
		return nil, err
	}

	memo := &models.Memo{Content: content, UserID: user.ID}
	return s.Upsert(ctx, memo, "")
}

// Delete removes a memo owned by the caller. A missing memo is not an error:
// the returned count is 0 so callers can tell "nothing to delete" from a
// fault.
func (s *MemoService) Delete(ctx context.Context, id int64, caller string) (int64, error) {
	existing, err := s.rm.Memos(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if err := s.authz.CanMutate(ctx, caller, existing.UserID); err != nil {
		return 0, err
	}

	count, err := s.rm.Memos(s.db).Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.logger.Info(ctx, "memo deleted", "memo_id", id, "user_id", existing.UserID)
	return count, nil
}
