package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/collegechat-server/internal/proto"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run joins two clients, sends one chat message, and disconnects the second,
// printing every frame the first client receives.
func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	alice, err := dialAndJoin(ctx, *addr, proto.JoinData{Name: "smoke-alice", Branch: "QA"})
	if err != nil {
		return err
	}
	defer alice.Close(websocket.StatusNormalClosure, "bye")
	if err := expect(ctx, alice, proto.OutboundEventSystemMessage, proto.OutboundEventUsers); err != nil {
		return err
	}

	bob, err := dialAndJoin(ctx, *addr, proto.JoinData{Name: "smoke-bob"})
	if err != nil {
		return err
	}
	if err := expect(ctx, alice, proto.OutboundEventSystemMessage, proto.OutboundEventUsers); err != nil {
		return err
	}

	payload, err := json.Marshal(*text)
	if err != nil {
		return fmt.Errorf("marshal text: %w", err)
	}
	if err := wsjson.Write(ctx, alice, proto.Inbound{Event: proto.InboundEventChatMessage, Data: payload}); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}
	if err := expect(ctx, alice, proto.OutboundEventChatMessage); err != nil {
		return err
	}

	if err := bob.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		return fmt.Errorf("close bob: %w", err)
	}
	if err := expect(ctx, alice, proto.OutboundEventSystemMessage, proto.OutboundEventUsers); err != nil {
		return err
	}

	fmt.Println("smoke test passed")
	return nil
}

func dialAndJoin(ctx context.Context, addr string, join proto.JoinData) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	payload, err := json.Marshal(join)
	if err != nil {
		return nil, fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Event: proto.InboundEventJoin, Data: payload}); err != nil {
		return nil, fmt.Errorf("send join: %w", err)
	}
	return conn, nil
}

func expect(ctx context.Context, conn *websocket.Conn, events ...string) error {
	for _, want := range events {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received event=%s data=%s\n", f.Event, f.Data)
		if f.Event != want {
			return fmt.Errorf("expected %s, got %s", want, f.Event)
		}
	}
	return nil
}
