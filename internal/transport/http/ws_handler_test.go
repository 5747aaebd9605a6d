package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collegechat-server/internal/config"
	"github.com/vovakirdan/collegechat-server/internal/core"
	"github.com/vovakirdan/collegechat-server/internal/proto"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startTestServer(t *testing.T, mutate ...func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	hub := core.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := config.Default()
	cfg.Port = 0
	for _, m := range mutate {
		m(&cfg)
	}
	logger := zerolog.Nop()

	server := NewServer(hub, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event, data string) {
	t.Helper()

	in := proto.Inbound{Event: event}
	if data != "" {
		in.Data = json.RawMessage(data)
	}
	require.NoError(t, wsjson.Write(ctx, conn, in))
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func expectSystem(t *testing.T, ctx context.Context, conn *websocket.Conn, text string) {
	t.Helper()

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundEventSystemMessage, f.Event)
	assert.JSONEq(t, `{"text":`+mustJSON(t, text)+`}`, string(f.Data))
}

func expectUsers(t *testing.T, ctx context.Context, conn *websocket.Conn) []proto.User {
	t.Helper()

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundEventUsers, f.Event)
	var users []proto.User
	require.NoError(t, json.Unmarshal(f.Data, &users))
	return users
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocketJoinChatDisconnect(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dial(t, ctx, ts)
	send(t, ctx, connA, "join", `{"name":"Alice","branch":"CS"}`)
	expectSystem(t, ctx, connA, "Welcome Alice!")
	assert.Equal(t, []proto.User{{Name: "Alice", Branch: "CS"}}, expectUsers(t, ctx, connA))

	connB := dial(t, ctx, ts)
	send(t, ctx, connB, "join", `{"name":"Bob"}`)
	expectSystem(t, ctx, connB, "Welcome Bob!")
	expectSystem(t, ctx, connA, "Bob () has joined the chat.")

	want := []proto.User{{Name: "Alice", Branch: "CS"}, {Name: "Bob", Branch: ""}}
	assert.ElementsMatch(t, want, expectUsers(t, ctx, connA))
	assert.ElementsMatch(t, want, expectUsers(t, ctx, connB))

	send(t, ctx, connA, "chatMessage", `"hi"`)
	for _, conn := range []*websocket.Conn{connA, connB} {
		f := readFrame(t, ctx, conn)
		require.Equal(t, proto.OutboundEventChatMessage, f.Event)

		var msg proto.ChatMessage
		require.NoError(t, json.Unmarshal(f.Data, &msg))
		assert.Equal(t, "Alice", msg.Name)
		assert.Equal(t, "CS", msg.Branch)
		assert.JSONEq(t, `"hi"`, string(msg.Text))

		sent, err := time.Parse(time.RFC3339Nano, msg.Time)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), sent, time.Minute)
		assert.True(t, strings.HasSuffix(msg.Time, "Z"))
	}

	require.NoError(t, connB.Close(websocket.StatusNormalClosure, "bye"))
	expectSystem(t, ctx, connA, "Bob () left the chat.")
	assert.Equal(t, []proto.User{{Name: "Alice", Branch: "CS"}}, expectUsers(t, ctx, connA))
	assert.Len(t, hub.Users(), 1)
}

func TestWebSocketChatWithoutJoin(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, "chatMessage", `{"free":"form"}`)

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundEventChatMessage, f.Event)

	var msg proto.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "Anonymous", msg.Name)
	assert.Equal(t, "", msg.Branch)
	assert.JSONEq(t, `{"free":"form"}`, string(msg.Text))
}

func TestWebSocketIgnoresMalformedFrames(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	send(t, ctx, conn, "typing", `{}`)
	send(t, ctx, conn, "join", `"just a string"`)

	// The connection survives and the join defaults its fields.
	expectSystem(t, ctx, conn, "Welcome Anonymous!")
	assert.Equal(t, []proto.User{{Name: "Anonymous", Branch: ""}}, expectUsers(t, ctx, conn))
}

func TestWebSocketUsersEmptyListIsArray(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	watcher := dial(t, ctx, ts)
	// Echo a chat message so the watcher is known to be registered.
	send(t, ctx, watcher, "chatMessage", `"ping"`)
	require.Equal(t, proto.OutboundEventChatMessage, readFrame(t, ctx, watcher).Event)

	other := dial(t, ctx, ts)
	send(t, ctx, other, "join", `{"name":"Temp"}`)

	expectSystem(t, ctx, watcher, "Temp () has joined the chat.")
	expectUsers(t, ctx, watcher)

	require.NoError(t, other.Close(websocket.StatusNormalClosure, "bye"))
	expectSystem(t, ctx, watcher, "Temp () left the chat.")

	f := readFrame(t, ctx, watcher)
	require.Equal(t, proto.OutboundEventUsers, f.Event)
	assert.JSONEq(t, `[]`, string(f.Data))
}

func TestWebSocketUpgradeOnServerHandler(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, resp, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")
	assert.Equal(t, 101, resp.StatusCode)

	// The gin routes stay reachable next to the WebSocket endpoint.
	health, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, 200, health.StatusCode)
}

func TestWebSocketChatWithoutTextOmitsKey(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	send(t, ctx, conn, "chatMessage", "")

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundEventChatMessage, f.Event)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(f.Data, &fields))
	assert.NotContains(t, fields, "text")
	assert.JSONEq(t, `"Anonymous"`, string(fields["name"]))
	assert.Contains(t, fields, "time")
}

func TestWebSocketLargeChatMessage(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, ts)
	conn.SetReadLimit(2 << 20)

	text := strings.Repeat("x", 200<<10)
	send(t, ctx, conn, "chatMessage", mustJSON(t, text))

	f := readFrame(t, ctx, conn)
	require.Equal(t, proto.OutboundEventChatMessage, f.Event)

	var msg proto.ChatMessage
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	var got string
	require.NoError(t, json.Unmarshal(msg.Text, &got))
	assert.Len(t, got, len(text))
}
