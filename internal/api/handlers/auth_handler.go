package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/config"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	authService services.IAuthService
	cfg         *config.Config
	logger      *zap.Logger
}

func NewAuthHandler(authService services.IAuthService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg, logger: logger}
}

// setAuthCookie mirrors the bearer token into an httpOnly cookie; maxAge < 0 clears it.
func (h *AuthHandler) setAuthCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, token, maxAge, "/", h.cfg.CookieDomain, h.cfg.CookieSecure, true)
}

func (h *AuthHandler) issued(c *gin.Context, status int, res *services.AuthResult) {
	h.setAuthCookie(c, res.Token, int(h.cfg.JwtTTL.Seconds()))
	respond(c, status, res)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var in validation.Registration
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.authService.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.issued(c, http.StatusCreated, res)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var in validation.Login
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.authService.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.issued(c, http.StatusOK, res)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so only the cookie is cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setAuthCookie(c, "", -1)
	respond(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var upd services.ProfileUpdate
	if !bindJSON(c, &upd) {
		return
	}
	user, err := h.authService.UpdateProfile(c.Request.Context(), middleware.Actor(c).ID, upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, user)
}

// ChangePhone handles PUT /api/auth/change-phone and reissues the token, since it carries the phone number.
func (h *AuthHandler) ChangePhone(c *gin.Context) {
	var in validation.PhoneChange
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.authService.ChangePhone(c.Request.Context(), middleware.Actor(c).ID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.issued(c, http.StatusOK, res)
}

func (h *AuthHandler) ToggleSavedProperty(c *gin.Context) {
	propertyID, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.authService.ToggleSavedProperty(c.Request.Context(), middleware.Actor(c).ID, propertyID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *AuthHandler) SavedProperties(c *gin.Context) {
	properties, err := h.authService.ListSavedProperties(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, properties)
}
