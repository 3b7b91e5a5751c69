// Package server implements the Acceptor: a TCP listener dispatching
// accepted connections to a fixed-size worker pool of Connection Handlers.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ConnHandler processes one accepted connection end to end.
type ConnHandler interface {
	Handle(ctx context.Context, conn net.Conn) error
}

// Acceptor binds a listening socket and dispatches each accepted
// connection to one of Workers idle workers. While all workers are busy,
// the accept loop holds at most one accepted connection until a worker
// takes it, and further connections wait in the kernel's accept backlog;
// the acceptor itself applies no additional bound.
type Acceptor struct {
	Addr    string
	Workers int
	Handler ConnHandler
	Log     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

func (a *Acceptor) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

// Run binds the listener and blocks until ctx is canceled or accepting
// fails unrecoverably. On ctx cancellation it closes the listener (which
// unblocks the pending Accept with a benign error) and waits for in-flight
// handlers to finish their current connection before returning.
func (a *Acceptor) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Addr)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.logger().Info("acceptor listening", "addr", ln.Addr().String(), "workers", a.Workers)

	conns := make(chan net.Conn)
	group, gctx := errgroup.WithContext(ctx)

	for i := 0; i < a.Workers; i++ {
		group.Go(func() error {
			a.worker(gctx, conns)
			return nil
		})
	}

	group.Go(func() error {
		<-gctx.Done()
		ln.Close()
		return nil
	})

	group.Go(func() error {
		defer close(conns)
		return a.acceptLoop(gctx, ln, conns)
	})

	return group.Wait()
}

// acceptLoop accepts connections and hands each to a worker, blocking
// until one is free. Transient accept errors are logged and retried with
// a rate-limited backoff; errors observed after shutdown has begun are
// silent.
func (a *Acceptor) acceptLoop(ctx context.Context, ln net.Listener, conns chan<- net.Conn) error {
	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			a.logger().Warn("accept error, retrying", "error", err)
			if waitErr := limiter.Wait(ctx); waitErr != nil {
				return nil
			}
			continue
		}

		select {
		case conns <- conn:
		case <-ctx.Done():
			conn.Close()
			return nil
		}
	}
}

func (a *Acceptor) worker(ctx context.Context, conns <-chan net.Conn) {
	for {
		select {
		case conn, ok := <-conns:
			if !ok {
				return
			}
			a.handle(ctx, conn)
		case <-ctx.Done():
			return
		}
	}
}

func (a *Acceptor) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	if err := a.Handler.Handle(ctx, conn); err != nil {
		a.logger().Warn("connection handler error", "remote", conn.RemoteAddr(), "error", err)
	}
}

// BoundAddr returns the bound listener's address, valid once Run has started
// listening. Used by tests that bind to port 0.
func (a *Acceptor) BoundAddr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}
