package httpapi

import (
	"net/http"

	appUser "github.com/trueque-app/trueque-api/internal/application/user"
	domainUser "github.com/trueque-app/trueque-api/internal/domain/user"
)

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid user id")
		return
	}
	u, err := s.userSvc.Get(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, publicProfile(u))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	var req appUser.UpdateInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	u, err := s.userSvc.Update(r.Context(), auth.UserID, req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if err := s.userSvc.ChangePassword(r.Context(), auth.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

type profileResponse struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
	Region  string  `json:"region"`
}

// publicProfile hides email and auth details from other users.
func publicProfile(u *domainUser.User) profileResponse {
	return profileResponse{
		ID:      u.ID.String(),
		Name:    u.Name,
		Picture: u.Picture,
		Region:  u.Region,
	}
}
