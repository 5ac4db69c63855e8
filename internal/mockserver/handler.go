package mockserver

import (
	"net/http"
	"time"

	pkgerrors "playground/pkg/errors"
	"playground/pkg/utils/logger"
	"playground/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Handler serves the auth endpoints.
type Handler struct {
	svc          *AuthService
	cookieName   string
	secureCookie bool
}

func NewHandler(svc *AuthService, cookieName string, secureCookie bool) *Handler {
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	return &Handler{svc: svc, cookieName: cookieName, secureCookie: secureCookie}
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, pkgerrors.BadRequest("invalid request body"))
			return
		}
	}
	session, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.InvalidCredentials) {
			h.clearRefreshCookie(c)
		}
		response.Error(c, err)
		return
	}
	h.setRefreshCookie(c, session)
	logger.Info(c.Request.Context(), "user logged in", zap.String("username", req.Username))
	c.JSON(http.StatusOK, loginResponse{AccessToken: session.AccessToken})
}

// Refresh handles POST /auth/refresh. The new access token is the plain-text body.
func (h *Handler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(h.cookieName)
	if raw == "" {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	session, err := h.svc.Refresh(c.Request.Context(), raw)
	if err != nil {
		logger.Warn(c.Request.Context(), "refresh rejected", zap.Error(err))
		h.clearRefreshCookie(c)
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	h.setRefreshCookie(c, session)
	c.String(http.StatusOK, session.AccessToken)
}

// Logout handles POST /auth/logout. It succeeds whatever the session state.
func (h *Handler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(h.cookieName)
	if err := h.svc.Logout(c.Request.Context(), raw); err != nil {
		logger.Warn(c.Request.Context(), "revoke refresh token failed", zap.Error(err))
	}
	h.clearRefreshCookie(c)
	response.Success(c, "")
}

// Codes handles GET /auth/codes.
func (h *Handler) Codes(c *gin.Context) {
	codes, err := h.svc.AccessCodes(c.Request.Context(), c.GetString(usernameKey))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, codes)
}

func (h *Handler) setRefreshCookie(c *gin.Context, session Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.RefreshToken,
		Path:     "/",
		MaxAge:   int(time.Until(session.RefreshExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
