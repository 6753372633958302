package router

import (
	"github.com/labstack/echo/v4"

	"rently/internal/adapter/api/handler"
	"rently/internal/adapter/api/middleware"
)

// SetupMessageRouter wires all messaging routes. Every endpoint requires
// authentication.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	messageGroup.POST("", messageHandler.SendMessage)                                       // POST /v1/messages - Send message with optional attachments
	messageGroup.GET("/threads", messageHandler.GetThreads)                                 // GET /v1/messages/threads - List conversations
	messageGroup.GET("/direct/:other_user_id", messageHandler.GetDirectHistory)             // GET /v1/messages/direct/:other_user_id - Direct history
	messageGroup.GET("/listing/:listing_id/:other_user_id", messageHandler.GetListingHistory) // GET /v1/messages/listing/:listing_id/:other_user_id - Listing-scoped history
	messageGroup.PATCH("/:id/read", messageHandler.MarkRead)                                // PATCH /v1/messages/:id/read - Mark one message read
}
