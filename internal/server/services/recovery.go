package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/auth"
	"github.com/maoji/memos-service/internal/server/config"
	"github.com/maoji/memos-service/internal/server/mail"
	"github.com/maoji/memos-service/internal/server/repositories/repomanager"
)

// RecoveryService implements e-mail based username and password recovery.
//
// All three operations report plain success/failure booleans: a caller can
// never tell "no account with that e-mail" from "the mail could not be
// sent", which keeps account existence unprobeable.
//
// The reset link embeds the user's current password hash as the recovery
// credential, so a link stops working the moment the password changes.
// Known trade-off carried from the product behavior: the hash travels in a
// URL parameter; a dedicated single-use reset token would avoid that.
type RecoveryService struct {
	db         *sql.DB
	rm         repomanager.RepositoryManager
	sender     mail.Sender
	logger     logging.Logger
	baseURL    string
	bcryptCost int
	now        func() time.Time
}

func NewRecoveryService(db *sql.DB, rm repomanager.RepositoryManager, sender mail.Sender,
	cfg *config.Config, logger logging.Logger) *RecoveryService {
	return &RecoveryService{
		db:         db,
		rm:         rm,
		sender:     sender,
		logger:     logger,
		baseURL:    cfg.PublicBaseURL,
		bcryptCost: cfg.BcryptCost,
		now:        time.Now,
	}
}

// RecoverUsername mails the account's username to the given address, when an
// account with that address exists.
func (s *RecoveryService) RecoverUsername(ctx context.Context, email string) bool {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug(ctx, "username recovery lookup failed", "error", err)
		return false
	}

	body := fmt.Sprintf("Hi,%s\nYour username is: %s", email, user.Username)
	if err := s.sender.Send(ctx, email, "[Memos] Username recovery", body); err != nil {
		s.logger.Warn(ctx, "username recovery mail failed", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

// RecoverPassword mails a reset link to the given address, when an account
// with that address exists. The link parameters (hash, userId, email) are
// the credentials ResetPassword later checks.
func (s *RecoveryService) RecoverPassword(ctx context.Context, email string) bool {
	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug(ctx, "password recovery lookup failed", "error", err)
		return false
	}

	link := fmt.Sprintf("%s/forget?hash=%s&userId=%d&email=%s",
		s.baseURL, url.QueryEscape(user.PasswordHash), user.ID, url.QueryEscape(email))
	body := fmt.Sprintf("Hi,%s\nFollow the link below to reset your password\n%s", email, link)
	if err := s.sender.Send(ctx, email, "[Memos] Password recovery", body); err != nil {
		s.logger.Warn(ctx, "password recovery mail failed", "user_id", user.ID, "error", err)
		return false
	}
	return true
}

// ResetPassword replaces the password of userID when the supplied hash and
// e-mail both exactly match the stored record, so the reset link itself is
// the credential. Any mismatch leaves the stored password untouched.
func (s *RecoveryService) ResetPassword(ctx context.Context, candidateHash string, userID int64, email, newPassword string) bool {
	repo := s.rm.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Debug(ctx, "password reset lookup failed", "error", err)
		return false
	}

	if user.Email == nil || *user.Email != email {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(candidateHash), []byte(user.PasswordHash)) != 1 {
		return false
	}
	if !auth.ValidPassword(newPassword) {
		return false
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		s.logger.Error(ctx, "password reset hash failed", "error", err)
		return false
	}
	user.PasswordHash = hash
	user.LastModified = s.now()

	if _, err := repo.Update(ctx, user); err != nil {
		s.logger.Error(ctx, "password reset update failed", "user_id", userID, "error", err)
		return false
	}

	s.logger.Info(ctx, "password reset", "user_id", userID)
	return true
}
