package handler // handler defines http handlers

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ws-server/internal/model"
)

// StatusHandler answers the root and health endpoints with a fresh
// StatusResponse on every request.
type StatusHandler struct {
    Service string           // value of the "service" field
    Now     func() time.Time // clock, replaced in tests
}

// NewStatusHandler returns a StatusHandler reporting service.
func NewStatusHandler(service string) *StatusHandler {
    return &StatusHandler{Service: service, Now: time.Now}
}

// Root reports that the server is running.
func (h *StatusHandler) Root(c echo.Context) error {
    return c.JSON(http.StatusOK, model.NewStatus(model.StatusRunning, h.Service, h.Now()))
}

// Health is used by load balancers and monitoring to verify the service is up.
func (h *StatusHandler) Health(c echo.Context) error {
    return c.JSON(http.StatusOK, model.NewStatus(model.StatusHealthy, h.Service, h.Now()))
}
