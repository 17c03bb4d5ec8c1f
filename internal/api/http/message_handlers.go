package httpapi

import (
	"net/http"

	"github.com/trueque-app/trueque-api/internal/domain/message"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	tradeID, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid trade id")
		return
	}

	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	m, err := s.messageSvc.Send(r.Context(), auth.UserID, tradeID, req.Content)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	tradeID, err := parseUUIDParam(r, "tradeId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid trade id")
		return
	}

	limit, offset := parseLimitOffset(r, 50, 200)
	messages, err := s.messageSvc.List(r.Context(), auth.UserID, tradeID, limit, offset)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if messages == nil {
		messages = []*message.Message{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
