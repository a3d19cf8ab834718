// Package queue contains the background consumer that listens to the
// session queue and appends one line per event to <dir>/session.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/ws-server/internal/model"
)

// SessionLogFile is the file name written inside the log directory.
const SessionLogFile = "session.log"

// SessionConsumer drains session events into a log file.
type SessionConsumer struct {
    URL    string // AMQP broker URL
    Queue  string // durable queue to consume
    LogDir string // directory holding SessionLogFile
}

// Run connects to the broker, declares the queue and consumes until ctx is
// cancelled. Broker failures are retried with exponential backoff capped at
// 30s; bad messages are rejected without requeue so the loop keeps going.
func (c SessionConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.Printf("session-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("session-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c SessionConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("session-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(c.LogDir, d.Body); err != nil {
                log.Printf("session-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one SessionEvent and appends its line to
// dir/session.log, creating the directory when needed.
func HandleMessage(dir string, body []byte) error {
    var ev model.SessionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Event == "" {
        return errors.New("event name missing")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, SessionLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev model.SessionEvent) string {
    switch ev.Event {
    case model.EventSessionClosed:
        return fmt.Sprintf("[%s] Session closed | remote=%s | messages=%d\n", ev.At, ev.RemoteAddr, ev.Messages)
    case model.EventSessionOpened:
        return fmt.Sprintf("[%s] Session opened | remote=%s\n", ev.At, ev.RemoteAddr)
    }
    return fmt.Sprintf("[%s] %s | remote=%s\n", ev.At, ev.Event, ev.RemoteAddr)
}
