package router

import (
	"github.com/labstack/echo/v4"

	"rently/internal/adapter/api/handler"
	"rently/internal/adapter/api/middleware"
)

func SetupSavedRouter(e *echo.Echo, savedHandler *handler.SavedHandler, authMiddleware *middleware.AuthMiddleware) {
	savedGroup := e.Group("/v1/saved")
	savedGroup.Use(authMiddleware.Authenticate)

	savedGroup.GET("", savedHandler.ListSaved)                   // GET /v1/saved - List saved listings
	savedGroup.POST("/:listing_id", savedHandler.ToggleSaved)    // POST /v1/saved/:listing_id - Toggle saved state
}
