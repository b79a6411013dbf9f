package httptransport

import (
	"log/slog"

	"github.com/cvforge/auth-service/internal/transport/http/handler"
	"github.com/cvforge/auth-service/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, sessionMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	auth := r.Group("/auth")
	auth.POST("/magic-link", authHandler.RequestMagicLink)
	auth.GET("/verify", authHandler.Verify)
	auth.GET("/recovery", authHandler.Recovery)
	auth.POST("/logout", authHandler.Logout)

	// Session introspection requires a live session.
	auth.GET("/session", sessionMW, authHandler.Session)

	return r
}
