package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const inboxSize = 256

// Hub owns the set of open connections and the presence registry.
// All connection events go through a single inbox and are handled one at a
// time by Run, so handlers never interleave and per-connection order holds.
type Hub struct {
	registry *Registry
	clients  map[string]*Client
	inbox    chan *Command
	done     chan struct{}
	now      func() time.Time
	log      *zerolog.Logger
}

// Option customizes a Hub.
type Option func(*Hub)

// WithClock overrides the clock used to timestamp chat messages.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// NewHub creates a hub around the given registry. A nil registry gets a fresh one.
func NewHub(registry *Registry, opts ...Option) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	nop := zerolog.Nop()
	h := &Hub{
		registry: registry,
		clients:  make(map[string]*Client),
		inbox:    make(chan *Command, inboxSize),
		done:     make(chan struct{}),
		now:      time.Now,
		log:      &nop,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes connection events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case cmd := <-h.inbox:
			h.handle(cmd)
		case <-ctx.Done():
			return
		}
	}
}

// Users returns the current presence list.
func (h *Hub) Users() []Session {
	return h.registry.List()
}

// RegisterClient adds an open connection.
func (h *Hub) RegisterClient(c *Client) {
	h.Dispatch(&Command{Kind: CommandConnect, Client: c})
}

// UnregisterClient reports a closed connection.
func (h *Hub) UnregisterClient(c *Client) {
	h.Dispatch(&Command{Kind: CommandDisconnect, Client: c})
}

// Dispatch queues a command for the hub. It returns immediately once the hub
// has stopped.
func (h *Hub) Dispatch(cmd *Command) {
	if cmd == nil || cmd.Client == nil {
		return
	}
	select {
	case h.inbox <- cmd:
	case <-h.done:
	}
}

func (h *Hub) handle(cmd *Command) {
	switch cmd.Kind {
	case CommandConnect:
		h.clients[cmd.Client.ID] = cmd.Client
		h.log.Info().Str("client_id", cmd.Client.ID).Msg("client connected")
	case CommandJoin:
		h.handleJoin(cmd.Client, cmd.Name, cmd.Branch)
	case CommandChatMessage:
		h.handleChatMessage(cmd.Client, cmd.Text)
	case CommandDisconnect:
		h.handleDisconnect(cmd.Client)
	default:
		h.log.Debug().Str("kind", cmd.Kind.String()).Msg("unknown command")
	}
}

func (h *Hub) handleJoin(c *Client, name, branch string) {
	if _, open := h.clients[c.ID]; !open {
		h.log.Debug().Str("client_id", c.ID).Msg("join from closed connection ignored")
		return
	}

	session := NewSession(c.ID, name, branch)
	if h.registry.Put(session) {
		h.log.Info().Str("client_id", c.ID).Str("name", session.Name).Msg("client rejoined")
	} else {
		h.log.Info().Str("client_id", c.ID).Str("name", session.Name).Int("online", h.registry.Len()).Msg("client joined")
	}

	h.sendTo(c, systemMessage(fmt.Sprintf("Welcome %s!", session.Name)))
	h.broadcastExcept(c, systemMessage(fmt.Sprintf("%s (%s) has joined the chat.", session.Name, session.Branch)))
	h.publishUsers()
}

func (h *Hub) handleChatMessage(c *Client, text json.RawMessage) {
	session, ok := h.registry.Get(c.ID)
	if !ok {
		session = anonymousSession(c.ID)
	}

	h.broadcast(&Event{
		Kind: EventChatMessage,
		Message: &ChatMessage{
			Name:   session.Name,
			Branch: session.Branch,
			Text:   text,
			Time:   h.now(),
		},
	})
}

func (h *Hub) handleDisconnect(c *Client) {
	if _, open := h.clients[c.ID]; open {
		delete(h.clients, c.ID)
		close(c.Events)
	}

	// c is already out of the connection set, so nothing below reaches it.
	session, ok := h.registry.Remove(c.ID)
	if !ok {
		return
	}
	h.log.Info().Str("client_id", c.ID).Str("name", session.Name).Int("online", h.registry.Len()).Msg("client disconnected")

	h.broadcastExcept(c, systemMessage(fmt.Sprintf("%s (%s) left the chat.", session.Name, session.Branch)))
	h.publishUsers()
}

func (h *Hub) publishUsers() {
	h.broadcast(usersEvent(h.registry.List()))
}

func (h *Hub) sendTo(c *Client, ev *Event) {
	if _, open := h.clients[c.ID]; !open {
		return
	}
	h.deliver(c, ev)
}

func (h *Hub) broadcastExcept(except *Client, ev *Event) {
	for id, c := range h.clients {
		if id == except.ID {
			continue
		}
		h.deliver(c, ev)
	}
}

func (h *Hub) broadcast(ev *Event) {
	for _, c := range h.clients {
		h.deliver(c, ev)
	}
}

func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
		h.log.Debug().Str("client_id", c.ID).Int("kind", int(ev.Kind)).Msg("event dropped")
	}
}
