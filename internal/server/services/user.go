package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/auth"
	"github.com/maoji/memos-service/internal/server/config"
	"github.com/maoji/memos-service/internal/server/models"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
)

// UserService handles registration, login, account lookups, and account
// updates.
type UserService struct {
	db         *sql.DB
	rm         repomanager.RepositoryManager
	authz      *Authorizer
	tokens     *auth.TokenIssuer
	logger     logging.Logger
	bcryptCost int
	now        func() time.Time
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, authz *Authorizer,
	tokens *auth.TokenIssuer, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:         db,
		rm:         rm,
		authz:      authz,
		tokens:     tokens,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// Register creates a new account. The username and password must match the
// registration rules; the username must be free. The stored record carries a
// one-way bcrypt hash, never the password.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if !auth.ValidUsername(username) {
		return nil, fmt.Errorf("username format: %w", common.ErrValidation)
	}
	if !auth.ValidPassword(password) {
		return nil, fmt.Errorf("password format: %w", common.ErrValidation)
	}

	repo := s.rm.Users(s.db)
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("username taken: %w", common.ErrDuplicate)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		LastModified: now,
	}
	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created, nil
}

// Login verifies the credentials and mints a session token bound to the
// username. Every failure (malformed input, unknown user, wrong password)
// yields the same common.ErrUnauthenticated so account existence cannot be
// probed.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	if !auth.ValidUsername(username) || !auth.ValidPassword(password) {
		return "", common.ErrUnauthenticated
	}

	user, err := s.rm.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthenticated
		}
		return "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", common.ErrUnauthenticated
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.rm.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.rm.Users(s.db).GetByUsername(ctx, username)
}

func (s *UserService) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return s.rm.Users(s.db).GetByExternalID(ctx, externalID)
}

// UpdateAccount changes password, email, and/or external id of the caller's
// own account. The username is immutable; the caller must prove ownership
// (Authorizer) and knowledge of the current password. Nil fields in upd are
// left untouched.
func (s *UserService) UpdateAccount(ctx context.Context, caller string, upd models.AccountUpdate) (*models.User, error) {
	if err := s.authz.CanMutate(ctx, caller, upd.UserID); err != nil {
		return nil, err
	}

	repo := s.rm.Users(s.db)
	user, err := repo.GetByID(ctx, upd.UserID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, upd.CurrentPassword) {
		return nil, common.ErrUnauthenticated
	}

	if upd.Password != nil {
		if !auth.ValidPassword(*upd.Password) {
			return nil, fmt.Errorf("password format: %w", common.ErrValidation)
		}
		hash, err := auth.HashPassword(*upd.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = hash
	}
	if upd.Email != nil {
		if !auth.ValidEmail(*upd.Email) {
			return nil, fmt.Errorf("email format: %w", common.ErrValidation)
		}
		user.Email = upd.Email
	}
	if upd.ExternalID != nil {
		user.ExternalID = upd.ExternalID
	}
	user.LastModified = s.now()

	updated, err := repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account updated", "user_id", updated.ID)
	return updated, nil
}
