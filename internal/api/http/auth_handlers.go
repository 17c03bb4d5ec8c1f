package httpapi

import (
	"net/http"

	appAuth "github.com/trueque-app/trueque-api/internal/application/auth"
	"github.com/trueque-app/trueque-api/internal/domain/apperrors"
)

type authResponse struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req appAuth.SignupInput
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.authSvc.Signup(r.Context(), req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{User: res.User, Token: res.Token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.authSvc.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			respondAppError(w, err)
			return
		}
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	auth := authUserFromContext(r.Context())
	u, err := s.userSvc.Get(r.Context(), auth.UserID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
