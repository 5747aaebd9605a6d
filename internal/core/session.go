package core

// AnonymousName is the display name used when a client joins without one,
// and for chat messages from connections that never joined.
const AnonymousName = "Anonymous"

// Session is the identity a connection announced with a join.
type Session struct {
	ClientID string
	Name     string
	Branch   string
}

// NewSession builds a session, defaulting an empty name to AnonymousName.
// An empty branch stays empty.
func NewSession(clientID, name, branch string) Session {
	if name == "" {
		name = AnonymousName
	}
	return Session{
		ClientID: clientID,
		Name:     name,
		Branch:   branch,
	}
}

func anonymousSession(clientID string) Session {
	return NewSession(clientID, "", "")
}
