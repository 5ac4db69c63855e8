package mockserver

import (
	"net/http"

	pkgerrors "playground/pkg/errors"
	"playground/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// RouterConfig wires the auth service into the HTTP surface.
type RouterConfig struct {
	CORS              CORSConfig
	RefreshCookieName string
	SecureCookie      bool
}

// NewRouter builds the gin engine serving the auth endpoints.
func NewRouter(svc *AuthService, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(TraceMiddleware())
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(RequestLogger())

	router.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, pkgerrors.NotFound, "")
	})
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	h := NewHandler(svc, cfg.RefreshCookieName, cfg.SecureCookie)
	router.POST("/api/login", h.Login)

	auth := router.Group("/auth")
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)
	auth.GET("/codes", AuthMiddleware(svc), h.Codes)
	return router
}
