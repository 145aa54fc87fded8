package session

// Observer receives session lifecycle events, typically to export metrics.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	SessionCreated()
	TokenRotated()
	LoginAttempt(provider string, success bool)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) SessionCreated()           {}
func (NopObserver) TokenRotated()             {}
func (NopObserver) LoginAttempt(string, bool) {}
