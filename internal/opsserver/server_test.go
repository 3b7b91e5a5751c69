package opsserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeQueueStats struct {
	size      int
	remaining int
	full      bool
}

func (f fakeQueueStats) Size() int              { return f.size }
func (f fakeQueueStats) RemainingCapacity() int { return f.remaining }
func (f fakeQueueStats) IsFull() bool           { return f.full }

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve addr: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func startServer(t *testing.T, s *Server) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", s.Addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	return func() {
		cancel()
		<-done
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	s := &Server{Addr: freeAddr(t), Queue: fakeQueueStats{size: 3, remaining: 7}}
	stop := startServer(t, s)
	defer stop()

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", s.Addr))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServerHealthzEndpoint(t *testing.T) {
	s := &Server{Addr: freeAddr(t), Queue: fakeQueueStats{}}
	stop := startServer(t, s)
	defer stop()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", s.Addr))
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestServerWSBroadcastsQueueSnapshot(t *testing.T) {
	s := &Server{
		Addr:         freeAddr(t),
		Queue:        fakeQueueStats{size: 2, remaining: 8},
		PollInterval: 20 * time.Millisecond,
	}
	stop := startServer(t, s)
	defer stop()

	wsURL := "ws://" + s.Addr + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var msg statsMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "queue" {
		t.Fatalf("msg.Type = %q, want queue", msg.Type)
	}

	body, _ := json.Marshal(msg.Data)
	if !strings.Contains(string(body), `"size":2`) {
		t.Fatalf("snapshot missing expected size: %s", body)
	}
	if !strings.Contains(string(body), `"capacity":10`) {
		t.Fatalf("snapshot missing expected capacity: %s", body)
	}
}
