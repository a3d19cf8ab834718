package router // package router defines how HTTP and WebSocket routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ws-server/internal/handler"
)

// RegisterRoutes maps the status endpoints and the WebSocket endpoint.
// An upgrade request on "/" is served by the WebSocket handler as well, so
// clients that connect to the bare host reach the echo loop.
func RegisterRoutes(e *echo.Echo, s *handler.StatusHandler, ws *handler.WSHandler) {
	e.GET("/", handler.UpgradeOr(ws.Serve, s.Root))
	e.GET("/health", s.Health)
	e.GET("/ws", ws.Serve)
}

// RegisterStats exposes the connection and request counters at /stats.
func RegisterStats(e *echo.Echo, h *handler.StatsHandler) {
	e.GET("/stats", h.Get)
}
