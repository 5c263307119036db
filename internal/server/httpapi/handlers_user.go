package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/server/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Hash     string `json:"hash"`
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleForgetUsername(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse{OK: s.recovery.RecoverUsername(r.Context(), req.Email)})
}

func (s *Server) handleForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse{OK: s.recovery.RecoverPassword(r.Context(), req.Email)})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	ok := s.recovery.ResetPassword(r.Context(), req.Hash, req.UserID, req.Email, req.Password)
	s.respondJSON(w, http.StatusOK, okResponse{OK: ok})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.users.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		s.respondError(w, r, fmt.Errorf("username is required: %w", common.ErrValidation))
		return
	}

	user, err := s.users.GetByUsername(r.Context(), username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var upd models.AccountUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.users.UpdateAccount(r.Context(), CallerFromContext(r.Context()), upd)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

type monthlyCountsResponse struct {
	Year   int   `json:"year"`
	Counts []int `json:"counts"`
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	byMonth, err := s.analytics.MonthlyCounts(r.Context(), userID, year)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	counts := make([]int, 12)
	for month, count := range byMonth {
		counts[month] = count
	}
	s.respondJSON(w, http.StatusOK, monthlyCountsResponse{Year: year, Counts: counts})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	year, err := yearParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	days, err := s.analytics.Heatmap(r.Context(), userID, year)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, days)
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", common.ErrValidation)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, common.ErrValidation)
	}
	return id, nil
}

func yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, fmt.Errorf("year is required: %w", common.ErrValidation)
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return 0, fmt.Errorf("year must be a positive integer: %w", common.ErrValidation)
	}
	return year, nil
}
