package live

import (
	"slices"

	"github.com/dmitrymomot/rpgconsent/core/session"
)

// Frame types pushed to clients.
const (
	FrameSessionChanged = "session.changed"
	FrameSessionValue   = "session.value"
	FrameError          = "error"
)

// Event types accepted from clients by SessionEvents.
const (
	EventSessionSet    = "session.set"
	EventSessionDelete = "session.delete"
	EventSessionGet    = "session.get"
)

// Frame is a server to client message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Event is a client to server message.
type Event struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
}

// SessionChange is the payload of a session.changed frame. Values are not sent;
// fragments re-render from the server-side session.
type SessionChange struct {
	// ClientID lets the browser resume the same shared store on reconnect.
	ClientID  string   `json:"client_id"`
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id,omitempty"`
	Keys      []string `json:"keys"`
}

// KeyValue is the payload of a session.value frame.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func sessionChange(s *session.Session) SessionChange {
	info := s.Info()
	keys := make([]string, 0, len(info.Data))
	for k := range info.Data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return SessionChange{
		SessionID: info.ID.String(),
		UserID:    info.UserID,
		Keys:      keys,
	}
}

func sessionChanged(change SessionChange, clientID string) Frame {
	change.ClientID = clientID
	return Frame{Type: FrameSessionChanged, Data: change}
}

func errorFrame(err error) Frame {
	return Frame{Type: FrameError, Data: map[string]string{"message": err.Error()}}
}
