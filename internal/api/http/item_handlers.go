package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	appItem "github.com/trueque-app/trueque-api/internal/application/item"
	"github.com/trueque-app/trueque-api/internal/domain/item"
)

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	var req appItem.CreateInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	i, err := s.itemSvc.Create(r.Context(), auth.UserID, req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, i)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "itemId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid item id")
		return
	}

	var req appItem.UpdateInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	i, err := s.itemSvc.Update(r.Context(), auth.UserID, id, req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, i)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "itemId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid item id")
		return
	}
	if err := s.itemSvc.Delete(r.Context(), auth.UserID, id); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "itemId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid item id")
		return
	}
	i, err := s.itemSvc.Get(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, i)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	filter := item.Filter{}
	q := r.URL.Query()
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user_id filter")
			return
		}
		filter.UserID = &id
	}
	if v := q.Get("status"); v != "" {
		status := item.Status(v)
		filter.Status = &status
	}
	if v := q.Get("region"); v != "" {
		region := v
		filter.Region = &region
	}

	limit, offset := parseLimitOffset(r, 20, 100)
	items, err := s.itemSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if items == nil {
		items = []*item.Item{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}
