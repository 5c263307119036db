package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/models"
	"github.com/maoji/memos-service/internal/server/services"
)

const testToken = "valid-token"

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (string, error) {
	if token == testToken {
		return "alice", nil
	}
	return "", common.ErrInvalidToken
}

type fakeUsers struct {
	user *models.User
	err  error

	lastCaller string
	lastUpdate models.AccountUpdate
}

func (f *fakeUsers) Register(ctx context.Context, username, password string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return testToken, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) UpdateAccount(ctx context.Context, caller string, upd models.AccountUpdate) (*models.User, error) {
	f.lastCaller = caller
	f.lastUpdate = upd
	return f.user, f.err
}

type fakeMemos struct {
	memo  *models.Memo
	list  []*models.Memo
	count int64
	err   error

	lastCaller string
	lastQuery  models.Query
	lastOpenID string
}

func (f *fakeMemos) GetByID(ctx context.Context, id int64) (*models.Memo, error) {
	return f.memo, f.err
}

func (f *fakeMemos) List(ctx context.Context, q models.Query) ([]*models.Memo, error) {
	f.lastQuery = q
	return f.list, f.err
}

func (f *fakeMemos) Upsert(ctx context.Context, memo *models.Memo, caller string) (*models.Memo, error) {
	f.lastCaller = caller
	if f.err != nil {
		return nil, f.err
	}
	return memo, nil
}

func (f *fakeMemos) Delete(ctx context.Context, id int64, caller string) (int64, error) {
	f.lastCaller = caller
	return f.count, f.err
}

func (f *fakeMemos) CreateByExternalID(ctx context.Context, externalID, content string) (*models.Memo, error) {
	f.lastOpenID = externalID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Memo{ID: 1, Content: content, UserID: 7}, nil
}

type fakeAnalytics struct {
	months map[int]int
	days   []services.HeatmapDay
	err    error
}

func (f *fakeAnalytics) MonthlyCounts(ctx context.Context, userID int64, year int) (map[int]int, error) {
	return f.months, f.err
}

func (f *fakeAnalytics) Heatmap(ctx context.Context, userID int64, year int) ([]services.HeatmapDay, error) {
	return f.days, f.err
}

type fakeRecovery struct {
	ok bool
}

func (f *fakeRecovery) RecoverUsername(ctx context.Context, email string) bool { return f.ok }
func (f *fakeRecovery) RecoverPassword(ctx context.Context, email string) bool { return f.ok }
func (f *fakeRecovery) ResetPassword(ctx context.Context, hash string, userID int64, email, password string) bool {
	return f.ok
}

type testEnv struct {
	srv       *Server
	users     *fakeUsers
	memos     *fakeMemos
	analytics *fakeAnalytics
	recovery  *fakeRecovery
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:     &fakeUsers{},
		memos:     &fakeMemos{},
		analytics: &fakeAnalytics{},
		recovery:  &fakeRecovery{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.srv = New(fakeVerifier{}, env.users, env.memos, env.analytics, env.recovery, logger)
	return env
}

func (env *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	env.srv.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv()
	env.users.user = &models.User{ID: 7, Username: "alice"}

	t.Run("missing token", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/user/7", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/user/7", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/user/7", testToken, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("open routes skip auth", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/user/login", "", credentialsRequest{Username: "alice", Password: "pw"})
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad input: %w", common.ErrValidation), http.StatusBadRequest},
		{common.ErrUnauthenticated, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrUnauthorized, http.StatusForbidden},
		{fmt.Errorf("owner 7: %w", common.ErrNotFound), http.StatusNotFound},
		{common.ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		env := newTestEnv()
		env.users.err = tt.err
		rr := env.do(t, http.MethodGet, "/user/7", testToken, nil)
		assert.Equal(t, tt.want, rr.Code, "error %v", tt.err)
	}
}

func TestInternalErrorDetailHidden(t *testing.T) {
	env := newTestEnv()
	env.users.err = fmt.Errorf("dial tcp 10.0.0.5: connection refused")

	rr := env.do(t, http.MethodGet, "/user/7", testToken, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestRegister(t *testing.T) {
	env := newTestEnv()
	env.users.user = &models.User{ID: 7, Username: "alice", PasswordHash: "secret-hash"}

	rr := env.do(t, http.MethodPost, "/user/register", "", credentialsRequest{Username: "alice", Password: "pw"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.EqualValues(t, 7, got["userId"])
	assert.Equal(t, "alice", got["username"])
	assert.NotContains(t, rr.Body.String(), "secret-hash")
}

func TestLogin_ReturnsToken(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodPost, "/user/login", "", credentialsRequest{Username: "alice", Password: "pw"})
	require.Equal(t, http.StatusOK, rr.Code)

	var got tokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, testToken, got.Token)
}

func TestUpdateAccount_CallerFromToken(t *testing.T) {
	env := newTestEnv()
	env.users.user = &models.User{ID: 7, Username: "alice"}

	upd := models.AccountUpdate{UserID: 7, CurrentPassword: "pw"}
	rr := env.do(t, http.MethodPut, "/user", testToken, upd)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alice", env.users.lastCaller)
	assert.Equal(t, upd, env.users.lastUpdate)
}

func TestUpsertMemo(t *testing.T) {
	env := newTestEnv()

	t.Run("caller propagated", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/memo", testToken, models.Memo{Content: "note", UserID: 7})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", env.memos.lastCaller)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/memo", testToken, models.Memo{UserID: 7})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/memo", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Authorization", "Bearer "+testToken)
		rr := httptest.NewRecorder()
		env.srv.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListMemos(t *testing.T) {
	env := newTestEnv()

	t.Run("query forwarded", func(t *testing.T) {
		env.memos.list = []*models.Memo{{ID: 1, Content: "a", UserID: 7}}
		q := models.Query{Tag: "work", Page: 2, PageSize: 10}
		rr := env.do(t, http.MethodPost, "/memo/trends", testToken, q)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, q, env.memos.lastQuery)
	})

	t.Run("empty page is a JSON array", func(t *testing.T) {
		env.memos.list = nil
		rr := env.do(t, http.MethodPost, "/memo/trends", testToken, models.Query{})
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestDeleteMemo(t *testing.T) {
	env := newTestEnv()
	env.memos.count = 1

	rr := env.do(t, http.MethodDelete, "/memo?memoId=3", testToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got deleteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.EqualValues(t, 1, got.Deleted)
	assert.Equal(t, "alice", env.memos.lastCaller)
}

func TestDeleteMemo_BadID(t *testing.T) {
	env := newTestEnv()

	for _, target := range []string{"/memo", "/memo?memoId=abc", "/memo?memoId=0"} {
		rr := env.do(t, http.MethodDelete, target, testToken, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "target %s", target)
	}
}

func TestBotMemo(t *testing.T) {
	env := newTestEnv()

	t.Run("creates without a token", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/memo/bot", "", botMemoRequest{OpenID: "wx-1", Memo: "hi"})
		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "wx-1", env.memos.lastOpenID)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/memo/bot", "", botMemoRequest{OpenID: "wx-1"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unbound id is 404", func(t *testing.T) {
		env.memos.err = fmt.Errorf("external id not bound: %w", common.ErrNotFound)
		rr := env.do(t, http.MethodPost, "/memo/bot", "", botMemoRequest{OpenID: "ghost", Memo: "hi"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv()
	env.analytics.months = map[int]int{0: 1, 2: 5, 11: 2}

	rr := env.do(t, http.MethodGet, "/user/7/analytics?year=2024", testToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got monthlyCountsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, []int{1, 0, 5, 0, 0, 0, 0, 0, 0, 0, 0, 2}, got.Counts)
}

func TestAnalytics_YearRequired(t *testing.T) {
	env := newTestEnv()

	rr := env.do(t, http.MethodGet, "/user/7/analytics", testToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHeatmap(t *testing.T) {
	env := newTestEnv()
	env.analytics.days = []services.HeatmapDay{
		{Date: "2024-01-01", Count: 3, Level: 1},
	}

	rr := env.do(t, http.MethodGet, "/user/7/heatmap?year=2024", testToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got []services.HeatmapDay
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, env.analytics.days[0], got[0])
}

func TestRecoveryRoutes(t *testing.T) {
	env := newTestEnv()
	env.recovery.ok = true

	for _, target := range []string{"/user/forget/username", "/user/forget/password"} {
		rr := env.do(t, http.MethodPost, target, "", emailRequest{Email: "a@b.co"})
		require.Equal(t, http.StatusOK, rr.Code, "target %s", target)
		assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	}

	rr := env.do(t, http.MethodPost, "/user/reset", "",
		resetRequest{Hash: "h", UserID: 7, Email: "a@b.co", Password: "abc123!@#x"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv()
	env.recovery.ok = false

	t.Run("generated when absent", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/user/forget/username", "", emailRequest{Email: "a@b.co"})
		assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
	})

	t.Run("echoed when supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/user/forget/username",
			bytes.NewReader([]byte(`{"email":"a@b.co"}`)))
		req.Header.Set(requestIDHeader, "req-123")
		rr := httptest.NewRecorder()
		env.srv.ServeHTTP(rr, req)
		assert.Equal(t, "req-123", rr.Header().Get(requestIDHeader))
	})
}
