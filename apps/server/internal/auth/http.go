package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RegisterHook runs after a successful registration, e.g. to open a wallet.
type RegisterHook func(ctx context.Context, username string) error

type HTTPHandler struct {
	manager    Service
	onRegister RegisterHook
	log        *zap.Logger
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	SessionToken string `json:"session_token"`
}

type meResponse struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(manager Service, onRegister RegisterHook, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{manager: manager, onRegister: onRegister, log: log.Named("auth")}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
}

func (h *HTTPHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.manager.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidPassword):
			WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUsernameTaken):
			WriteError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error("register failed", zap.Error(err))
			WriteError(w, http.StatusInternalServerError, "register failed")
		}
		return
	}
	if h.onRegister != nil {
		if err := h.onRegister(r.Context(), s.Username); err != nil {
			// the account exists; the wallet is created lazily on first use
			h.log.Warn("post-register hook failed", zap.String("username", s.Username), zap.Error(err))
		}
	}

	WriteJSON(w, http.StatusOK, authResponse{
		UserID:       s.AccountID,
		Username:     s.Username,
		SessionToken: s.Token,
	})
}

func (h *HTTPHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.manager.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			WriteError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		UserID:       s.AccountID,
		Username:     s.Username,
		SessionToken: s.Token,
	})
}

func (h *HTTPHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	h.manager.Logout(r.Context(), token)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s, ok := Authenticate(r, h.manager)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	WriteJSON(w, http.StatusOK, meResponse{
		UserID:   s.AccountID,
		Username: s.Username,
	})
}

// Authenticate resolves the bearer token of r.
func Authenticate(r *http.Request, svc Service) (Session, bool) {
	token := BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return Session{}, false
	}
	return svc.Resolve(r.Context(), token)
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func BearerToken(raw string) string {
	if !strings.HasPrefix(raw, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Error: msg})
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
