package core

import (
	"encoding/json"
	"time"
)

// ChatMessage is composed at send time and never stored.
type ChatMessage struct {
	Name   string
	Branch string
	Text   json.RawMessage
	Time   time.Time
}
