package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/ws-server/internal/config"
	"github.com/iliyamo/ws-server/internal/handler"
	"github.com/iliyamo/ws-server/internal/middleware"
	"github.com/iliyamo/ws-server/internal/queue"
	"github.com/iliyamo/ws-server/internal/repository"
	"github.com/iliyamo/ws-server/internal/router"
	queue_publisher "github.com/iliyamo/ws-server/internal/service"
)

func main() {
	cfg := config.Load()
	log.Printf("config: env=%s service=%s", cfg.Env, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats := newStatsRepo(ctx, cfg)

	var events handler.EventPublisher
	if cfg.Events.Enabled {
		pub := queue_publisher.NewSessionPublisher(cfg.Events.URL, cfg.Events.Queue)
		defer pub.Close()
		events = pub
		log.Printf("session events: publishing to queue %s", cfg.Events.Queue)
	}
	if cfg.Events.Consumer {
		c := queue.SessionConsumer{URL: cfg.Events.URL, Queue: cfg.Events.Queue, LogDir: cfg.Events.LogDir}
		go func() {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("session-consumer: stopped: %v", err)
			}
		}()
	}

	ws := handler.NewWSHandler(stats, events, cfg.ReadLimit, cfg.WriteTimeout)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(middleware.CountRequests(stats))
	router.RegisterRoutes(e, handler.NewStatusHandler(cfg.ServiceName), ws)
	router.RegisterStats(e, handler.NewStatsHandler(stats))

	addr := fmt.Sprintf(":%d", cfg.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen on %s: %v", addr, err)
	}
	e.Listener = l

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	for _, line := range startupLines(cfg.Port) {
		log.Print(line)
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		ws.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// startupLines are printed once the listener is bound.
func startupLines(port int) []string {
	return []string{
		fmt.Sprintf("Server running on port %d", port),
		fmt.Sprintf("Health endpoint: http://localhost:%d/health", port),
		fmt.Sprintf("WebSocket endpoint: ws://localhost:%d/ws", port),
	}
}

// newStatsRepo uses Redis when it is enabled and reachable, memory otherwise.
// The Redis store's active-connection key is kept alive until ctx ends.
func newStatsRepo(ctx context.Context, cfg config.Config) repository.StatsRepo {
	if rdb := config.NewRedisClient(cfg.Redis); rdb != nil {
		log.Printf("stats: using redis at %s (instance %s)", cfg.Redis.Addr, cfg.Stats.Instance)
		repo := repository.NewRedisStatsRepo(rdb, cfg.Stats.Prefix, cfg.Stats.Instance, cfg.Stats.ActiveTTL)
		go repo.Heartbeat(ctx, func(err error) { log.Printf("stats: heartbeat: %v", err) })
		return repo
	}
	if cfg.Redis.Enabled {
		log.Printf("stats: redis at %s unreachable, keeping counters in memory", cfg.Redis.Addr)
	}
	return repository.NewMemoryStatsRepo()
}
