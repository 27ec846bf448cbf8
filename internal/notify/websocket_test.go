package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/domain"
)

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	hub := NewWebSocketHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	event := domain.LotEvent{ID: "e1", Type: domain.LotEventCheckIn, LotID: null.IntFrom(1), PlateNumber: "AA1"}
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var got domain.LotEvent
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if got.ID != "e1" || got.PlateNumber != "AA1" {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestHubPublishDoesNotBlockWhenFull(t *testing.T) {
	hub := NewWebSocketHub(zap.NewNop())

	var err error
	for i := 0; i < cap(hub.broadcast)+1; i++ {
		err = hub.Publish(context.Background(), domain.LotEvent{ID: "e"})
	}
	if !errors.Is(err, ErrBroadcastFull) {
		t.Fatalf("expected ErrBroadcastFull once the buffer is full, got %v", err)
	}
}
