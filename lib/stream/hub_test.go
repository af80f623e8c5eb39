// Copyright 2026 The Chronon Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chronon-foundation/chronon/lib/testutil"
	"github.com/chronon-foundation/chronon/lib/trace"
)

func testServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestBroadcastReachesClients(t *testing.T) {
	hub, url := testServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	want := Message{
		Run:      "run-1",
		Scenario: "staggered",
		Entry: trace.Entry{
			Kind:     trace.KindWake,
			At:       50 * time.Millisecond,
			Timer:    "heartbeat",
			FireTime: 50 * time.Millisecond,
		},
	}
	hub.Broadcast(want)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}

	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshalling broadcast: %v", err)
	}
	if got != want {
		t.Fatalf("broadcast = %+v, want %+v", got, want)
	}
}

func TestBroadcastFansOut(t *testing.T) {
	hub, url := testServer(t)

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dialing websocket %d: %v", i, err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}

	waitForClients(t, hub, 3)

	hub.Broadcast(Message{Run: "run-2", Scenario: "fanout", Entry: trace.Entry{Kind: trace.KindAdvance}})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d: reading broadcast: %v", i, err)
		}
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("client %d: unmarshalling: %v", i, err)
		}
		if got.Run != "run-2" {
			t.Fatalf("client %d: Run = %q, want %q", i, got.Run, "run-2")
		}
	}
}

func TestClientCountTracksDisconnect(t *testing.T) {
	hub, url := testServer(t)

	if hub.ClientCount() != 0 {
		t.Fatalf("ClientCount = %d before any connection, want 0", hub.ClientCount())
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}

	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestCountChangedCallback(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	counts := make(chan int, 4)
	hub.CountChanged = func(count int) { counts <- count }

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}

	if got := testutil.RequireReceive(t, counts, 5*time.Second, "connect count"); got != 1 {
		t.Fatalf("CountChanged = %d on connect, want 1", got)
	}

	hub.Broadcast(Message{Run: testutil.UniqueID("run"), Scenario: "count", Entry: trace.Entry{Kind: trace.KindAdvance}})

	conn.Close()
	if got := testutil.RequireReceive(t, counts, 5*time.Second, "disconnect count"); got != 0 {
		t.Fatalf("CountChanged = %d on disconnect, want 0", got)
	}
}

// waitForClients polls until the hub sees the expected client count.
// Registration and disconnect cleanup happen on the server side of
// the websocket handshake, after the dial returns, so the test has to
// wait for them.
func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ClientCount = %d, want %d", hub.ClientCount(), want)
}
