package model

import "time"

// Values of StatusResponse.Status.
const (
    StatusRunning = "running"
    StatusHealthy = "healthy"
)

// StatusResponse is returned by the root and health endpoints.
type StatusResponse struct {
    Status    string `json:"status"`
    Timestamp string `json:"timestamp"`
    Service   string `json:"service"`
}

// NewStatus builds a StatusResponse stamped with now.
func NewStatus(status, service string, now time.Time) StatusResponse {
    return StatusResponse{Status: status, Timestamp: FormatTime(now), Service: service}
}
