package wallet

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taash29/apps/server/internal/auth"
)

type HTTPHandler struct {
	auth   auth.Service
	wallet Service
	log    *zap.Logger
}

type coinsRequest struct {
	Coins int64 `json:"coins"`
}

type walletResponse struct {
	Username string `json:"username"`
	Coins    int64  `json:"coins"`
}

func NewHTTPHandler(authService auth.Service, walletService Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{auth: authService, wallet: walletService, log: log.Named("wallet")}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/wallet/add", h.handleAdjust(true))
	mux.HandleFunc("/api/wallet/deduct", h.handleAdjust(false))
	mux.HandleFunc("/api/wallet/", h.handleGet)
	mux.HandleFunc("/api/me/wallet", h.handleMe)
}

// handleGet is public: an unknown user reads as zero coins.
func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		auth.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/wallet/"))
	if username == "" || strings.Contains(username, "/") {
		auth.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	h.writeBalance(w, r, username)
}

func (h *HTTPHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		auth.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s, ok := auth.Authenticate(r, h.auth)
	if !ok {
		auth.WriteError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	h.writeBalance(w, r, s.Username)
}

func (h *HTTPHandler) writeBalance(w http.ResponseWriter, r *http.Request, username string) {
	coins, err := h.wallet.GetBalance(r.Context(), username)
	if err != nil && !errors.Is(err, ErrWalletNotFound) {
		h.log.Error("get balance failed", zap.String("username", username), zap.Error(err))
		auth.WriteError(w, http.StatusInternalServerError, "get wallet failed")
		return
	}
	auth.WriteJSON(w, http.StatusOK, walletResponse{Username: username, Coins: coins})
}

func (h *HTTPHandler) handleAdjust(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			auth.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s, ok := auth.Authenticate(r, h.auth)
		if !ok {
			auth.WriteError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		var req coinsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx := r.Context()
		if _, err := h.wallet.Get(ctx, s.Username); err != nil {
			if errors.Is(err, ErrWalletNotFound) {
				auth.WriteError(w, http.StatusNotFound, "wallet not found")
				return
			}
			auth.WriteError(w, http.StatusInternalServerError, "get wallet failed")
			return
		}

		var (
			coins int64
			err   error
		)
		if add {
			coins, err = h.wallet.Credit(ctx, s.Username, req.Coins)
		} else {
			coins, err = h.wallet.Deduct(ctx, s.Username, req.Coins)
		}
		switch {
		case errors.Is(err, ErrInvalidAmount):
			auth.WriteError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			h.log.Error("adjust wallet failed", zap.String("username", s.Username), zap.Bool("add", add), zap.Error(err))
			auth.WriteError(w, http.StatusInternalServerError, "update wallet failed")
			return
		}
		auth.WriteJSON(w, http.StatusOK, map[string]int64{"coins": coins})
	}
}
