package hydrate

import "github.com/clubtrivia/clubtrivia/internal/trivia"

// Session is the resolved authentication state: either Guest or
// Authenticated. A sealed interface keeps the two cases explicit instead
// of scattering "user != nil" checks through callers.
type Session interface {
	isSession()
}

// Guest is an unauthenticated visitor; progress lives only on-device.
type Guest struct{}

func (Guest) isSession() {}

// Authenticated carries the server-backed user session.
type Authenticated struct {
	User trivia.UserSession
}

func (Authenticated) isSession() {}

// IsGuest reports whether the session resolved to guest.
func IsGuest(s Session) bool {
	_, ok := s.(Guest)
	return ok
}
