package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	appTrade "github.com/trueque-app/trueque-api/internal/application/trade"
	"github.com/trueque-app/trueque-api/internal/domain/trade"
)

func (s *Server) proposeTrade(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	var req appTrade.ProposeInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	t, err := s.tradeSvc.Propose(r.Context(), auth.UserID, req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	var status *trade.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st := trade.Status(v)
		status = &st
	}
	var role *trade.Role
	if v := r.URL.Query().Get("role"); v != "" {
		rl := trade.Role(v)
		role = &rl
	}

	limit, offset := parseLimitOffset(r, 20, 100)
	trades, err := s.tradeSvc.List(r.Context(), auth.UserID, status, role, limit, offset)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if trades == nil {
		trades = []*trade.Trade{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func (s *Server) getTrade(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid trade id")
		return
	}
	detail, err := s.tradeSvc.Get(r.Context(), auth.UserID, id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) acceptTrade(w http.ResponseWriter, r *http.Request) {
	s.transitionTrade(w, r, s.tradeSvc.Accept)
}

func (s *Server) rejectTrade(w http.ResponseWriter, r *http.Request) {
	s.transitionTrade(w, r, s.tradeSvc.Reject)
}

func (s *Server) cancelTrade(w http.ResponseWriter, r *http.Request) {
	s.transitionTrade(w, r, s.tradeSvc.Cancel)
}

func (s *Server) completeTrade(w http.ResponseWriter, r *http.Request) {
	s.transitionTrade(w, r, s.tradeSvc.Complete)
}

func (s *Server) transitionTrade(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, actorID, tradeID uuid.UUID) (*trade.Trade, error),
) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid trade id")
		return
	}
	t, err := fn(r.Context(), auth.UserID, id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}
