// Package httpapi exposes the memo service over HTTP: a chi router with
// bearer-token auth on the protected routes and plain JSON request/response
// bodies.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maoji/memos-service/internal/logging"
	"github.com/maoji/memos-service/internal/server/models"
	"github.com/maoji/memos-service/internal/server/services"
)

// UserService is the account surface the handlers call.
type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateAccount(ctx context.Context, caller string, upd models.AccountUpdate) (*models.User, error)
}

// MemoService is the memo surface the handlers call.
type MemoService interface {
	GetByID(ctx context.Context, id int64) (*models.Memo, error)
	List(ctx context.Context, q models.Query) ([]*models.Memo, error)
	Upsert(ctx context.Context, memo *models.Memo, caller string) (*models.Memo, error)
	Delete(ctx context.Context, id int64, caller string) (int64, error)
	CreateByExternalID(ctx context.Context, externalID, content string) (*models.Memo, error)
}

// AnalyticsService is the usage-statistics surface the handlers call.
type AnalyticsService interface {
	MonthlyCounts(ctx context.Context, userID int64, year int) (map[int]int, error)
	Heatmap(ctx context.Context, userID int64, year int) ([]services.HeatmapDay, error)
}

// RecoveryService is the account-recovery surface the handlers call.
type RecoveryService interface {
	RecoverUsername(ctx context.Context, email string) bool
	RecoverPassword(ctx context.Context, email string) bool
	ResetPassword(ctx context.Context, candidateHash string, userID int64, email, newPassword string) bool
}

// TokenVerifier checks a bearer token and returns the username it carries.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	logger    logging.Logger
	tokens    TokenVerifier
	users     UserService
	memos     MemoService
	analytics AnalyticsService
	recovery  RecoveryService
}

func New(tokens TokenVerifier, users UserService, memos MemoService,
	analytics AnalyticsService, recovery RecoveryService, logger logging.Logger) *Server {
	s := &Server{
		logger:    logger,
		tokens:    tokens,
		users:     users,
		memos:     memos,
		analytics: analytics,
		recovery:  recovery,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.requestLogger)

	// Open routes: registration, login, and the recovery flow.
	r.Post("/user/register", s.handleRegister)
	r.Post("/user/login", s.handleLogin)
	r.Post("/user/forget/username", s.handleForgetUsername)
	r.Post("/user/forget/password", s.handleForgetPassword)
	r.Post("/user/reset", s.handleResetPassword)
	r.Post("/memo/bot", s.handleBotMemo)

	// Everything else requires a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/user", s.handleGetUserByUsername)
		r.Put("/user", s.handleUpdateAccount)
		r.Get("/user/{userId}", s.handleGetUser)
		r.Get("/user/{userId}/analytics", s.handleAnalytics)
		r.Get("/user/{userId}/heatmap", s.handleHeatmap)

		r.Get("/memo", s.handleGetMemo)
		r.Post("/memo", s.handleUpsertMemo)
		r.Post("/memo/trends", s.handleListMemos)
		r.Delete("/memo", s.handleDeleteMemo)
	})

	s.router = r
}
