package model

// Stats is a point-in-time view of the service counters.
type Stats struct {
    ConnectionsTotal  int64 `json:"connections_total"`  // upgrades that reached the open state
    ConnectionsActive int64 `json:"connections_active"` // connections currently open
    MessagesTotal     int64 `json:"messages_total"`     // inbound frames echoed
    HTTPRequestsTotal int64 `json:"http_requests_total"`
}
