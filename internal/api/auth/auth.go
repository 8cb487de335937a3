package auth

import (
	dto "crash_backend/internal/api/dto/auth"
	"crash_backend/internal/converter"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	authServ "crash_backend/internal/service/auth"
	"crash_backend/pkg/logger"
	"crash_backend/pkg/req"
	"crash_backend/pkg/resp"
	"errors"
	"net/http"
	"time"
)

const (
	sessionCookie = "session_id"
	refreshCookie = "refresh_token"
	refreshPath   = "/auth"
)

type HandlerDeps struct {
	Serv       service.AuthService
	RefreshTTL time.Duration
	// Secure - cookies только по https
	Secure bool
}

type Handler struct {
	serv       service.AuthService
	refreshTTL time.Duration
	secure     bool
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, refreshTTL: deps.RefreshTTL, secure: deps.Secure}
}

// Register создаёт пользователя, открывает сессию
// и возвращает access_token, session_id и refresh_token уходят в cookies
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	requestBody, err := req.Decode[dto.RegisterRequest](r.Body)
	if err != nil || requestBody.Login == "" || requestBody.Password == "" {
		resp.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request")
		return
	}

	data, err := h.serv.Register(r.Context(), converter.RegisterRequestToUserModel(&requestBody))
	if err != nil {
		if errors.Is(err, repository.ErrLoginTaken) {
			resp.WriteError(w, http.StatusConflict, "LOGIN_TAKEN", "login is taken")
			return
		}
		logger.Error("Register failed", "login", requestBody.Login, "err", err)
		resp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "register failed")
		return
	}

	h.setSessionCookies(w, data.SessionID, data.RefreshToken)
	resp.WriteJSONResponse(w, http.StatusCreated, dto.TokenResponse{AccessToken: data.AccessToken})
}

// Login создаёт сессию
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	requestBody, err := req.Decode[dto.LoginRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request")
		return
	}

	data, err := h.serv.Login(r.Context(), converter.LoginRequestToUserModel(&requestBody))
	if err != nil {
		if errors.Is(err, authServ.ErrInvalidCredentials) {
			resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid login or password")
			return
		}
		logger.Error("Login failed", "login", requestBody.Login, "err", err)
		resp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}

	h.setSessionCookies(w, data.SessionID, data.RefreshToken)
	resp.WriteJSONResponse(w, http.StatusOK, dto.TokenResponse{AccessToken: data.AccessToken})
}

// Refresh выдаёт новый access_token по session_id и refresh_token
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sid, err := r.Cookie(sessionCookie)
	if err != nil {
		resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "no session_id cookie")
		return
	}
	rt, err := r.Cookie(refreshCookie)
	if err != nil {
		resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "no refresh_token cookie")
		return
	}

	accessToken, err := h.serv.Refresh(r.Context(), &model.AuthData{SessionID: sid.Value, RefreshToken: rt.Value})
	if err != nil {
		if errors.Is(err, authServ.ErrInvalidCredentials) {
			resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "session expired")
			return
		}
		logger.Error("Refresh failed", "err", err)
		resp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "refresh failed")
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, dto.TokenResponse{AccessToken: accessToken})
}

// Logout закрывает сессию по session_id
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "no session_id cookie")
		return
	}

	if err = h.serv.Logout(r.Context(), c.Value); err != nil {
		logger.Error("Logout failed", "err", err)
		resp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "logout failed")
		return
	}

	h.clearCookie(w, sessionCookie, "/")
	h.clearCookie(w, refreshCookie, refreshPath)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, sessionID, refreshToken string) {
	maxAge := int(h.refreshTTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refreshToken,
		Path:     refreshPath,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
