package auth

import (
	"net/http"

	"github.com/JustinTDCT/TuneVault/internal/httputil"
)

// LoginHandler exchanges the admin password for a bearer token.
func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := s.Login(req.Password)
	if err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(tokenTTL.Seconds()),
	})
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
