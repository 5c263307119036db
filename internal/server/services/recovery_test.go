package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maoji/memos-service/internal/server/auth"
	"github.com/maoji/memos-service/internal/server/config"
	"github.com/maoji/memos-service/internal/server/models"
)

func newRecoveryService(rm *fakeRepoManager, sender *fakeSender) *RecoveryService {
	cfg := &config.Config{
		BcryptCost:    bcrypt.MinCost,
		PublicBaseURL: "https://memos.example.com",
	}
	s := NewRecoveryService(nil, rm, sender, cfg, testLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func seedUserWithEmail(rm *fakeRepoManager, username, password, email string) *models.User {
	u := seedUser(rm, username, password)
	u.Email = &email
	return u
}

func TestRecoveryService_RecoverUsername(t *testing.T) {
	rm := newFakeRepoManager()
	sender := &fakeSender{}
	s := newRecoveryService(rm, sender)
	ctx := context.Background()

	seedUserWithEmail(rm, "alice", validPassword, "alice@example.com")

	ok := s.RecoverUsername(ctx, "alice@example.com")
	assert.True(t, ok)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "alice@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].body, "alice")
}

func TestRecoveryService_RecoverUsername_FailuresIndistinguishable(t *testing.T) {
	rm := newFakeRepoManager()
	sender := &fakeSender{}
	s := newRecoveryService(rm, sender)
	ctx := context.Background()

	// No such e-mail.
	okMissing := s.RecoverUsername(ctx, "ghost@example.com")

	// Account exists but delivery fails.
	seedUserWithEmail(rm, "alice", validPassword, "alice@example.com")
	sender.sendErr = errors.New("smtp down")
	okSendFail := s.RecoverUsername(ctx, "alice@example.com")

	assert.False(t, okMissing)
	assert.False(t, okSendFail)
	assert.Equal(t, okMissing, okSendFail, "callers must not be able to tell the cases apart")
}

func TestRecoveryService_RecoverPassword_LinkParameters(t *testing.T) {
	rm := newFakeRepoManager()
	sender := &fakeSender{}
	s := newRecoveryService(rm, sender)
	ctx := context.Background()

	alice := seedUserWithEmail(rm, "alice", validPassword, "alice@example.com")

	ok := s.RecoverPassword(ctx, "alice@example.com")
	assert.True(t, ok)
	require.Len(t, sender.sent, 1)

	body := sender.sent[0].body
	assert.Contains(t, body, "https://memos.example.com/forget?hash=")
	assert.Contains(t, body, fmt.Sprintf("userId=%d", alice.ID))
	assert.Contains(t, body, "email=alice%40example.com")
}

func TestRecoveryService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*RecoveryService, *fakeRepoManager, *models.User) {
		t.Helper()
		rm := newFakeRepoManager()
		s := newRecoveryService(rm, &fakeSender{})
		u := seedUserWithEmail(rm, "alice", validPassword, "alice@example.com")
		return s, rm, u
	}

	t.Run("exact match replaces the hash", func(t *testing.T) {
		s, rm, alice := setup(t)
		oldHash := alice.PasswordHash

		ok := s.ResetPassword(ctx, oldHash, alice.ID, "alice@example.com", otherPassword)
		assert.True(t, ok)

		stored := rm.u.byID[alice.ID]
		assert.NotEqual(t, oldHash, stored.PasswordHash)
		assert.True(t, auth.CheckPassword(stored.PasswordHash, otherPassword))
		assert.Equal(t, fixedNow, stored.LastModified)
	})

	t.Run("wrong hash leaves password untouched", func(t *testing.T) {
		s, rm, alice := setup(t)
		oldHash := alice.PasswordHash

		ok := s.ResetPassword(ctx, "forged-hash", alice.ID, "alice@example.com", otherPassword)
		assert.False(t, ok)
		assert.Equal(t, oldHash, rm.u.byID[alice.ID].PasswordHash)
	})

	t.Run("wrong email leaves password untouched", func(t *testing.T) {
		s, rm, alice := setup(t)
		oldHash := alice.PasswordHash

		ok := s.ResetPassword(ctx, oldHash, alice.ID, "other@example.com", otherPassword)
		assert.False(t, ok)
		assert.Equal(t, oldHash, rm.u.byID[alice.ID].PasswordHash)
	})

	t.Run("unknown user", func(t *testing.T) {
		s, _, _ := setup(t)
		assert.False(t, s.ResetPassword(ctx, "any", 404, "alice@example.com", otherPassword))
	})

	t.Run("invalid new password rejected", func(t *testing.T) {
		s, rm, alice := setup(t)
		oldHash := alice.PasswordHash

		ok := s.ResetPassword(ctx, oldHash, alice.ID, "alice@example.com", "weak")
		assert.False(t, ok)
		assert.Equal(t, oldHash, rm.u.byID[alice.ID].PasswordHash)
	})
}
