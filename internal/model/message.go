package model

import "time"

// TimeLayout renders timestamps as ISO-8601 UTC with millisecond precision,
// e.g. 2024-05-01T12:30:45.123Z.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Envelope types sent over a WebSocket connection.
const (
    TypeWelcome = "welcome"
    TypeEcho    = "echo"
)

// WelcomeText is the message carried by the welcome envelope.
const WelcomeText = "WebSocket connection established"

// FormatTime formats t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
    return t.UTC().Format(TimeLayout)
}

// Envelope is the JSON frame the server writes for welcome and echo
// messages.
//
// Fields:
//  Type    – TypeWelcome or TypeEcho.
//  Message – WelcomeText, or the inbound payload for echoes.
//  Time    – when the frame was built, see FormatTime.
type Envelope struct {
    Type    string `json:"type"`
    Message string `json:"message"`
    Time    string `json:"time"`
}

// NewWelcome builds the frame sent once when a connection opens.
func NewWelcome(now time.Time) Envelope {
    return Envelope{Type: TypeWelcome, Message: WelcomeText, Time: FormatTime(now)}
}

// NewEcho wraps an inbound payload.
func NewEcho(data string, now time.Time) Envelope {
    return Envelope{Type: TypeEcho, Message: data, Time: FormatTime(now)}
}
