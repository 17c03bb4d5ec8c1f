package httpapi

import "net/http"

// signUpload hands the client signed parameters for a direct image
// upload to Cloudinary.
func (s *Server) signUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploadSigner == nil || !s.uploadSigner.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "image uploads are not configured")
		return
	}
	params, err := s.uploadSigner.SignUpload()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL", "failed to sign upload")
		return
	}
	respondJSON(w, http.StatusOK, params)
}
