package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/auth"
	"github.com/CLDWare/evaluations-backend/internal/middleware"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

// AuthenticationHandler handles admin sign in and out
type AuthenticationHandler struct {
	config *config.Config
	auth   *auth.Service
}

// NewAuthenticationHandler creates a new AuthenticationHandler
func NewAuthenticationHandler(cfg *config.Config, authService *auth.Service) *AuthenticationHandler {
	return &AuthenticationHandler{
		config: cfg,
		auth:   authService,
	}
}

type PostLoginRequest struct {
	Email    string `json:"email" example:"admin@example.com"`
	Password string `json:"password"`
}

type AdminSessionInfo struct {
	IsAuthenticated bool       `json:"isAuthenticated"`
	Email           string     `json:"email,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

func (h *AuthenticationHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	return cookie
}

// PostLogin
//
// @Summary		Admin login
// @Description	Check admin credentials and set the admin_session cookie
// @Tags			admin auth
// @Accept			json
// @Produce		json
// @Param			body	body		PostLoginRequest	true	"Credentials"
// @Success		200	{object}	apiResponses.BaseResponse{data=AdminSessionInfo}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/login [post]
func (h *AuthenticationHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodPost); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	var body PostLoginRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		gecho.BadRequest(w).WithMessage("Email and password are required").Send()
		return
	}

	session, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		gecho.Unauthorized(w).WithMessage("Invalid email or password").Send()
		return
	}
	if err != nil {
		logger.Err(err)
		gecho.InternalServerError(w).Send()
		return
	}

	logger.Info("Admin signed in:", session.Email)
	http.SetCookie(w, h.sessionCookie(session.Token, session.ExpiresAt))
	gecho.Success(w).WithData(AdminSessionInfo{
		IsAuthenticated: true,
		Email:           session.Email,
		ExpiresAt:       &session.ExpiresAt,
	}).Send()
}

// PostLogout
//
// @Summary		Admin logout
// @Description	Clear the admin_session cookie
// @Tags			admin auth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=AdminSessionInfo}
// @Router			/api/admin/logout [post]
func (h *AuthenticationHandler) PostLogout(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodPost); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))
	gecho.Success(w).WithData(AdminSessionInfo{IsAuthenticated: false}).Send()
}

// GetCheckSession
//
// @Summary		Check the admin session
// @Description	Report whether the admin_session cookie holds a valid session
// @Tags			admin auth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=AdminSessionInfo}
// @Router			/api/admin/check-session [get]
func (h *AuthenticationHandler) GetCheckSession(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodGet); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	info := AdminSessionInfo{}
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if claims, err := h.auth.Validate(cookie.Value); err == nil {
			info.IsAuthenticated = true
			info.Email = claims.Email
			if claims.ExpiresAt != nil {
				expiresAt := claims.ExpiresAt.Time
				info.ExpiresAt = &expiresAt
			}
		}
	}
	gecho.Success(w).WithData(info).Send()
}

// GetMe
//
// @Summary		Get the signed in admin
// @Tags			admin auth requiresAuth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=AdminSessionInfo}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Router			/api/admin/me [get]
func (h *AuthenticationHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		gecho.InternalServerError(w).Send()
		return
	}
	expiresAt := claims.ExpiresAt.Time
	gecho.Success(w).WithData(AdminSessionInfo{
		IsAuthenticated: true,
		Email:           claims.Email,
		ExpiresAt:       &expiresAt,
	}).Send()
}
