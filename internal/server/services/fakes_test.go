package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/dbx"
	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/models"
	memosrepo "github.com/maoji/memos-service/internal/server/repositories/memos"
	usersrepo "github.com/maoji/memos-service/internal/server/repositories/users"
)

// --- in-memory fakes shared by the service tests ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	byID   map[int64]*models.User
	nextID int64

	forcedErr error // when set, every call fails with it
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return nil, common.ErrDuplicate
		}
	}
	return f.add(u), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, u := range f.byID {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	for _, u := range f.byID {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) (*models.User, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return nil, common.ErrNotFound
	}
	f.byID[u.ID] = u
	return u, nil
}

type fakeMemosRepo struct {
	byID   map[int64]*models.Memo
	nextID int64

	listOut    []*models.Memo
	lastFilter *memosrepo.Filter

	byMonth map[int]int
	byDay   map[string]int

	forcedErr error
}

func newFakeMemosRepo() *fakeMemosRepo {
	return &fakeMemosRepo{byID: make(map[int64]*models.Memo), nextID: 1}
}

func (f *fakeMemosRepo) add(m *models.Memo) *models.Memo {
	if m.ID == 0 {
		m.ID = f.nextID
		f.nextID++
	}
	f.byID[m.ID] = m
	return m
}

func (f *fakeMemosRepo) GetByID(ctx context.Context, id int64) (*models.Memo, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	if m, ok := f.byID[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeMemosRepo) List(ctx context.Context, filter memosrepo.Filter) ([]*models.Memo, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	f.lastFilter = &filter
	return f.listOut, nil
}

func (f *fakeMemosRepo) Create(ctx context.Context, m *models.Memo) (*models.Memo, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	copied := *m
	return f.add(&copied), nil
}

func (f *fakeMemosRepo) Update(ctx context.Context, m *models.Memo) (*models.Memo, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	existing, ok := f.byID[m.ID]
	if !ok {
		return nil, common.ErrNotFound
	}
	existing.Content = m.Content
	existing.Tags = m.Tags
	existing.LastModified = m.LastModified
	copied := *existing
	return &copied, nil
}

func (f *fakeMemosRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if f.forcedErr != nil {
		return 0, f.forcedErr
	}
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

func (f *fakeMemosRepo) CountByMonth(ctx context.Context, userID int64, year int) (map[int]int, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.byMonth, nil
}

func (f *fakeMemosRepo) CountByDay(ctx context.Context, userID int64, year int) (map[string]int, error) {
	if f.forcedErr != nil {
		return nil, f.forcedErr
	}
	return f.byDay, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	m *fakeMemosRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), m: newFakeMemosRepo()}
}

func (f *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return f.u }
func (f *fakeRepoManager) Memos(db dbx.DBTX) memosrepo.Repository { return f.m }
func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeSender struct {
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	to, subject, body string
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
