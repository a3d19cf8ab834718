// Package queue_publisher publishes session lifecycle events to RabbitMQ.
// Errors are logged and returned so callers can ignore failures without
// interrupting the connection they describe.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/ws-server/internal/model"
)

// SessionPublisher sends SessionEvents to a durable queue over one shared
// broker connection and channel. Both are opened on first use and reopened
// on the next Publish after either one fails.
type SessionPublisher struct {
    url   string
    queue string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewSessionPublisher returns a publisher for queue on the broker at url.
// Nothing is dialed until the first Publish.
func NewSessionPublisher(url, queue string) *SessionPublisher {
    return &SessionPublisher{url: url, queue: queue}
}

// channel returns the open channel, dialing and declaring the queue when
// there is none. Callers hold p.mu.
func (p *SessionPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    conn, err := amqp.Dial(p.url)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        _ = conn.Close()
        return nil, err
    }
    // Idempotent; durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// reset drops the cached channel and connection. Callers hold p.mu.
func (p *SessionPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Publish sends ev as a persistent JSON message. It never panics; any error
// is logged and returned, and a failed channel is discarded so the next
// call redials.
func (p *SessionPublisher) Publish(ctx context.Context, ev model.SessionEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Event,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        p.reset()
        return err
    }
    return nil
}

// Close releases the broker connection. It is safe to call more than once.
func (p *SessionPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
