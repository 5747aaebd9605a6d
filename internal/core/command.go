package core

import "encoding/json"

// CommandKind describes what happened on a connection.
type CommandKind int

const (
	// CommandConnect adds a freshly opened connection.
	CommandConnect CommandKind = iota
	// CommandJoin announces the connection's identity.
	CommandJoin
	// CommandChatMessage broadcasts a chat message from the connection.
	CommandChatMessage
	// CommandDisconnect removes a closed connection.
	CommandDisconnect
)

func (k CommandKind) String() string {
	switch k {
	case CommandConnect:
		return "connect"
	case CommandJoin:
		return "join"
	case CommandChatMessage:
		return "chatMessage"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Command is a connection event delivered to the hub.
type Command struct {
	Kind   CommandKind
	Client *Client

	// Name and Branch are set for CommandJoin. Empty means absent.
	Name   string
	Branch string

	// Text is the raw chat payload for CommandChatMessage, forwarded verbatim.
	Text json.RawMessage
}
