package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	appAuth "github.com/trueque-app/trueque-api/internal/application/auth"
	appItem "github.com/trueque-app/trueque-api/internal/application/item"
	appMessage "github.com/trueque-app/trueque-api/internal/application/message"
	appNotification "github.com/trueque-app/trueque-api/internal/application/notification"
	appTrade "github.com/trueque-app/trueque-api/internal/application/trade"
	appUser "github.com/trueque-app/trueque-api/internal/application/user"
	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
	"github.com/trueque-app/trueque-api/internal/infrastructure/cloudinary"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authSvc         *appAuth.Service
	userSvc         *appUser.Service
	itemSvc         *appItem.Service
	tradeSvc        *appTrade.Service
	messageSvc      *appMessage.Service
	notificationSvc *appNotification.Service
	uploadSigner    *cloudinary.UploadSigner
}

func NewServer(
	authSvc *appAuth.Service,
	userSvc *appUser.Service,
	itemSvc *appItem.Service,
	tradeSvc *appTrade.Service,
	messageSvc *appMessage.Service,
	notificationSvc *appNotification.Service,
	uploadSigner *cloudinary.UploadSigner,
) *Server {
	return &Server{
		authSvc:         authSvc,
		userSvc:         userSvc,
		itemSvc:         itemSvc,
		tradeSvc:        tradeSvc,
		messageSvc:      messageSvc,
		notificationSvc: notificationSvc,
		uploadSigner:    uploadSigner,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/up", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.signup)
			r.Post("/login", s.login)
			r.Post("/google", s.googleLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{userId}", s.getUser)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Patch("/me", s.updateProfile)
				r.Put("/me/password", s.changePassword)
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Get("/{itemId}", s.getItem)
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.createItem)
				r.Patch("/{itemId}", s.updateItem)
				r.Delete("/{itemId}", s.deleteItem)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Route("/trades", func(r chi.Router) {
				r.Post("/", s.proposeTrade)
				r.Get("/", s.listTrades)
				r.Get("/{tradeId}", s.getTrade)
				r.Post("/{tradeId}/accept", s.acceptTrade)
				r.Post("/{tradeId}/reject", s.rejectTrade)
				r.Post("/{tradeId}/cancel", s.cancelTrade)
				r.Post("/{tradeId}/complete", s.completeTrade)

				r.Get("/{tradeId}/messages", s.listMessages)
				r.Post("/{tradeId}/messages", s.sendMessage)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.listNotifications)
				r.Get("/unread_count", s.unreadCount)
				r.Post("/read_all", s.markAllNotificationsRead)
				r.Post("/{notificationId}/read", s.markNotificationRead)
				r.Delete("/{notificationId}", s.deleteNotification)
			})

			r.Route("/uploads", func(r chi.Router) {
				r.Post("/sign", s.signUpload)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondAppError maps classified application errors onto HTTP status
// codes; anything unclassified is a 500.
func respondAppError(w http.ResponseWriter, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "VALIDATION_FAILED",
			"message": "validation failed",
			"errors":  apperrors.FieldsOf(err),
		})
	case apperrors.KindAuthorization:
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case apperrors.KindConflict:
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case apperrors.KindNotFound:
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
