package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ws-server/internal/repository"
)

// StatsHandler exposes the service counters.
type StatsHandler struct {
    Repo repository.StatsRepo
}

// NewStatsHandler panics if repo is nil.
func NewStatsHandler(repo repository.StatsRepo) *StatsHandler {
    if repo == nil {
        panic("nil repository passed to NewStatsHandler")
    }
    return &StatsHandler{Repo: repo}
}

// Get returns the current counters as JSON.
func (h *StatsHandler) Get(c echo.Context) error {
    s, err := h.Repo.Snapshot(c.Request().Context())
    if err != nil {
        c.Logger().Errorf("stats snapshot failed: %v", err)
        return c.JSON(http.StatusInternalServerError, map[string]any{
            "error":   "stats_unavailable",
            "message": "counters could not be read",
        })
    }
    return c.JSON(http.StatusOK, s)
}
