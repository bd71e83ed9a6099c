package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"bollette/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	FlatNumber  string `json:"flat_number"`
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Absent account and wrong password both read as invalid
		// credentials to the caller.
		writeError(w, r, auth.ErrInvalidCredentials)
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "role", string(user.Role))
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toUserDTO(user)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	user, err := s.accounts.Register(r.Context(), req.Email, req.DisplayName, req.FlatNumber, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "User registered", "user_id", user.ID, "flat", user.FlatNumber)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: toUserDTO(user)})
}
