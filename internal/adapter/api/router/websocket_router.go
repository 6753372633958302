package router

import (
	"github.com/labstack/echo/v4"

	"rently/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the push-delivery socket. Authentication
// happens inside the handler via the token query parameter, since browsers
// cannot attach headers to the WebSocket handshake.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
