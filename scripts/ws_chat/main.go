package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

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
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3000/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	branch := flag.String("branch", "", "branch announced with join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.JoinData{Name: *name, Branch: *branch})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Event: proto.InboundEventJoin, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch f.Event {
		case proto.OutboundEventSystemMessage:
			var msg proto.SystemMessage
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				log.Printf("unmarshal systemMessage: %v", err)
				continue
			}
			fmt.Printf("* %s\n", msg.Text)
		case proto.OutboundEventUsers:
			var users []proto.User
			if err := json.Unmarshal(f.Data, &users); err != nil {
				log.Printf("unmarshal users: %v", err)
				continue
			}
			online := make([]string, 0, len(users))
			for _, u := range users {
				online = append(online, fmt.Sprintf("%s (%s)", u.Name, u.Branch))
			}
			fmt.Printf("online: %s\n", strings.Join(online, ", "))
		case proto.OutboundEventChatMessage:
			var msg proto.ChatMessage
			if err := json.Unmarshal(f.Data, &msg); err != nil {
				log.Printf("unmarshal chatMessage: %v", err)
				continue
			}
			text := string(msg.Text)
			var s string
			if json.Unmarshal(msg.Text, &s) == nil {
				text = s
			}
			fmt.Printf("[%s] %s (%s): %s\n", msg.Time, msg.Name, msg.Branch, text)
		default:
			fmt.Printf("event=%s data=%s\n", f.Event, f.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(text)
			if err != nil {
				log.Printf("marshal chatMessage: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Event: proto.InboundEventChatMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
