package httpapi

import (
	"net/http"

	"github.com/trueque-app/trueque-api/internal/domain/notification"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, offset := parseLimitOffset(r, 20, 100)

	notifications, err := s.notificationSvc.ListForUser(r.Context(), auth.UserID, unreadOnly, limit, offset)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*notification.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	count, err := s.notificationSvc.CountUnread(r.Context(), auth.UserID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notification id")
		return
	}
	if err := s.notificationSvc.MarkRead(r.Context(), auth.UserID, id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	if err := s.notificationSvc.MarkAllRead(r.Context(), auth.UserID); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notification id")
		return
	}
	if err := s.notificationSvc.Delete(r.Context(), auth.UserID, id); err != nil {
		respondAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
