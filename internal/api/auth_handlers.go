package api

import (
	"net/http"

	"github.com/jnst/store-backoffice/internal/model"
)

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var params model.RegisterParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.services.Auth.Register(r.Context(), &params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var params model.LoginParams
	if err := decodeBody(r, &params); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.services.Auth.Login(r.Context(), &params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, token)
}
