package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventSystemMessage carries a human-readable server notice.
	EventSystemMessage EventKind = iota
	// EventUsers carries the full presence list.
	EventUsers
	// EventChatMessage carries a chat message.
	EventChatMessage
)

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be modified.
type Event struct {
	Kind    EventKind
	Text    string       // EventSystemMessage
	Users   []Session    // EventUsers
	Message *ChatMessage // EventChatMessage
}

func systemMessage(text string) *Event {
	return &Event{Kind: EventSystemMessage, Text: text}
}

func usersEvent(users []Session) *Event {
	return &Event{Kind: EventUsers, Users: users}
}
