package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/maoji/memos-service/internal/common"
	"github.com/maoji/memos-service/internal/server/models"
)

type botMemoRequest struct {
	OpenID string `json:"openId"`
	Memo   string `json:"memo"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) handleGetMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	memo, err := s.memos.GetByID(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, memo)
}

func (s *Server) handleListMemos(w http.ResponseWriter, r *http.Request) {
	var q models.Query
	if err := decodeBody(r, &q); err != nil {
		s.respondError(w, r, err)
		return
	}

	memos, err := s.memos.List(r.Context(), q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if memos == nil {
		memos = []*models.Memo{}
	}
	s.respondJSON(w, http.StatusOK, memos)
}

func (s *Server) handleUpsertMemo(w http.ResponseWriter, r *http.Request) {
	var memo models.Memo
	if err := decodeBody(r, &memo); err != nil {
		s.respondError(w, r, err)
		return
	}
	if memo.Content == "" {
		s.respondError(w, r, fmt.Errorf("content is required: %w", common.ErrValidation))
		return
	}

	saved, err := s.memos.Upsert(r.Context(), &memo, CallerFromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	count, err := s.memos.Delete(r.Context(), id, CallerFromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, deleteResponse{Deleted: count})
}

// handleBotMemo is the unauthenticated create path for chat-bot integrations:
// the external id must already be bound to an account.
func (s *Server) handleBotMemo(w http.ResponseWriter, r *http.Request) {
	var req botMemoRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.OpenID == "" || req.Memo == "" {
		s.respondError(w, r, fmt.Errorf("openId and memo are required: %w", common.ErrValidation))
		return
	}

	created, err := s.memos.CreateByExternalID(r.Context(), req.OpenID, req.Memo)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func memoIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("memoId"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("memoId must be a positive integer: %w", common.ErrValidation)
	}
	return id, nil
}
