package repository

import (
	"context"
	"sync/atomic"

	"github.com/iliyamo/ws-server/internal/model"
)

// StatsRepo records connection lifecycle and traffic counters.
type StatsRepo interface {
	ConnectionOpened(ctx context.Context) error
	ConnectionClosed(ctx context.Context) error
	MessageHandled(ctx context.Context) error
	HTTPRequest(ctx context.Context) error
	Snapshot(ctx context.Context) (model.Stats, error)
}

// MemoryStatsRepo keeps counters in process memory.
type MemoryStatsRepo struct {
	connectionsTotal  atomic.Int64
	connectionsActive atomic.Int64
	messagesTotal     atomic.Int64
	httpRequestsTotal atomic.Int64
}

// NewMemoryStatsRepo returns a zeroed in-memory store.
func NewMemoryStatsRepo() *MemoryStatsRepo { return &MemoryStatsRepo{} }

func (r *MemoryStatsRepo) ConnectionOpened(context.Context) error {
	r.connectionsTotal.Add(1)
	r.connectionsActive.Add(1)
	return nil
}

func (r *MemoryStatsRepo) ConnectionClosed(context.Context) error {
	r.connectionsActive.Add(-1)
	return nil
}

func (r *MemoryStatsRepo) MessageHandled(context.Context) error {
	r.messagesTotal.Add(1)
	return nil
}

func (r *MemoryStatsRepo) HTTPRequest(context.Context) error {
	r.httpRequestsTotal.Add(1)
	return nil
}

func (r *MemoryStatsRepo) Snapshot(context.Context) (model.Stats, error) {
	return model.Stats{
		ConnectionsTotal:  r.connectionsTotal.Load(),
		ConnectionsActive: r.connectionsActive.Load(),
		MessagesTotal:     r.messagesTotal.Load(),
		HTTPRequestsTotal: r.httpRequestsTotal.Load(),
	}, nil
}
