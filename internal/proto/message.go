package proto

import (
	"bytes"
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	InboundEventJoin        = "join"
	InboundEventChatMessage = "chatMessage"

	OutboundEventSystemMessage = "systemMessage"
	OutboundEventUsers         = "users"
	OutboundEventChatMessage   = "chatMessage"
)

// TimeLayout renders chat timestamps as UTC ISO-8601 with milliseconds.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// JoinData announces the client's identity. Both fields are optional.
type JoinData struct {
	Name   string `json:"name,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// ParseJoin decodes join data leniently: a payload that is not an object, or
// fields that are not strings, read as absent.
func ParseJoin(data json.RawMessage) JoinData {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return JoinData{}
	}
	return JoinData{
		Name:   stringField(fields["name"]),
		Branch: stringField(fields["branch"]),
	}
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// ChatText returns the chat payload to forward. Absent data stays nil so the
// text key is left out of the broadcast; an explicit null is kept.
func ChatText(data json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	return trimmed
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SystemMessage is a server notice.
type SystemMessage struct {
	Text string `json:"text"`
}

// User is one entry of the presence list.
type User struct {
	Name   string `json:"name"`
	Branch string `json:"branch"`
}

// ChatMessage is a chat message as broadcast to every client.
type ChatMessage struct {
	Name   string          `json:"name"`
	Branch string          `json:"branch"`
	Text   json.RawMessage `json:"text,omitempty"`
	Time   string          `json:"time"`
}
