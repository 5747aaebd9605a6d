package core

// DefaultClientBuffer is the outbound event buffer used when none is configured.
const DefaultClientBuffer = 64

// Client is an open connection as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}
