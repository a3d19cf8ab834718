package model

// Session lifecycle event names.
const (
    EventSessionOpened = "session.opened"
    EventSessionClosed = "session.closed"
)

// SessionEvent is published when a WebSocket connection opens or closes.
// Messages is only set on close and counts inbound frames handled.
type SessionEvent struct {
    Event      string `json:"event"`
    RemoteAddr string `json:"remote_addr"`
    At         string `json:"at"`
    Messages   int64  `json:"messages,omitempty"`
}
