package middleware

import (
    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ws-server/internal/repository"
)

// CountRequests increments the HTTP request counter for every plain HTTP
// request. Upgrade requests are counted as connections by the WebSocket
// handler instead. Counter failures are logged and never fail the request.
func CountRequests(repo repository.StatsRepo) echo.MiddlewareFunc {
    if repo == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !websocket.IsWebSocketUpgrade(c.Request()) {
                if err := repo.HTTPRequest(c.Request().Context()); err != nil {
                    c.Logger().Warnf("[stats] request counter: %v", err)
                }
            }
            return next(c)
        }
    }
}
