package http

import (
	"net/http"
	"time"

	"financas/internal/core"
	"financas/internal/middleware/identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// handleLogin verifies credentials, sets the session cookie and returns
// the token for clients that prefer the Authorization header.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	user, token, err := s.deps.Users.Login(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     identity.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.deps.Tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	NewJSONResponse().Data(loginResponse{Token: token, User: user}).Message("login successful").Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     identity.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	NewJSONResponse().Message("logout successful").Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.Me(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, user)
}

// handleRegister lets an admin create another user.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in core.UserInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	in.Name = sanitizeInput(in.Name)
	user, err := s.deps.Users.Register(r.Context(), caller(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	created(w, user)
}
