package live

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/rpgconsent/core/session"
)

// SessionEvents returns the default event handler. It lets the UI read and write
// session keys, resolving the session through the client. The identity key is
// read-only here; it changes only through login and logout.
func SessionEvents(mgr *session.Manager) EventHandler {
	st := mgr.Storage()
	return func(ctx context.Context, c *Client, ev Event) error {
		switch ev.Type {
		case EventSessionSet:
			if err := writableKey(ev.Key); err != nil {
				return err
			}
			return st.Set(ctx, ev.Key, ev.Value)
		case EventSessionDelete:
			if err := writableKey(ev.Key); err != nil {
				return err
			}
			return st.Delete(ctx, ev.Key)
		case EventSessionGet:
			v, err := st.Lookup(ctx, ev.Key)
			if err != nil {
				return err
			}
			c.Send(Frame{Type: FrameSessionValue, Data: KeyValue{Key: ev.Key, Value: v}})
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
		}
	}
}

func writableKey(key string) error {
	switch key {
	case "":
		return fmt.Errorf("%w: key is required", ErrInvalidEvent)
	case session.UserIDKey:
		return fmt.Errorf("%w: %q is read-only", ErrInvalidEvent, key)
	}
	return nil
}
