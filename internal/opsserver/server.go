// Package opsserver exposes the operational HTTP surface alongside the
// ingest listener: Prometheus scraping at /metrics and a live stats feed
// at /ws for operator dashboards. It is a read-only view over the
// pipeline's own counters and the bounded queue's depth; it never takes
// a video handle off the queue.
package opsserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueueStats is the minimal view of the bounded queue the ops server
// needs. Satisfied by *queue.Bounded.
type QueueStats interface {
	Size() int
	RemainingCapacity() int
	IsFull() bool
}

type queueSnapshot struct {
	Size     int  `json:"size"`
	Capacity int  `json:"capacity"`
	IsFull   bool `json:"is_full"`
}

// Server serves /metrics and /ws on its own listener address, separate
// from the ingest protocol's Acceptor.
type Server struct {
	Addr         string
	Queue        QueueStats
	Log          *slog.Logger
	PollInterval time.Duration

	hub    *hub
	srv    *http.Server
	cancel context.CancelFunc
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Server) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return 2 * time.Second
}

// Run starts the ops HTTP server and blocks until ctx is canceled or the
// server fails to bind or serve. Always returns a non-nil error; callers
// shutting down via ctx should expect context.Canceled or
// http.ErrServerClosed, not nil.
func (s *Server) Run(ctx context.Context) error {
	s.hub = newHub(s.logger())
	go s.hub.run()

	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.pollLoop(pollCtx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{
		Addr:    s.Addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("ops server listening", "addr", s.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.shutdown()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() {
	s.cancel()
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger().Warn("ops ws upgrade failed", "error", err)
		return
	}
	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()

	s.hub.broadcastStats("queue", s.snapshot())
}

func (s *Server) snapshot() queueSnapshot {
	size := s.Queue.Size()
	return queueSnapshot{
		Size:     size,
		Capacity: size + s.Queue.RemainingCapacity(),
		IsFull:   s.Queue.IsFull(),
	}
}

func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.hub.broadcastStats("queue", s.snapshot())
		}
	}
}
