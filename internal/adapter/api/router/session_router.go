package router

import (
	"github.com/labstack/echo/v4"

	"rently/internal/adapter/api/handler"
	"rently/internal/adapter/api/middleware"
)

func SetupSessionRouter(e *echo.Echo, sessionHandler *handler.SessionHandler, authMiddleware *middleware.AuthMiddleware) {
	sessionGroup := e.Group("/v1/session")
	sessionGroup.Use(authMiddleware.Authenticate)

	sessionGroup.GET("", sessionHandler.GetSession)   // GET /v1/session - Cached identity summary
	sessionGroup.DELETE("", sessionHandler.SignOut)   // DELETE /v1/session - Sign out, clear cache
}
