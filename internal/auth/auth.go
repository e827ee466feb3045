// Package auth adapts the opaque authentication collaborator: the core
// only ever reads the current identity at call time.
package auth

import (
	"sync"

	"github.com/samber/lo"

	"socialite/internal/core"
)

// Static always reports one fixed identity. The CLI builds one from the
// --as-user/--as-name flags.
type Static struct {
	Identity core.Identity
}

func (s *Static) Current() core.Identity {
	return s.Identity
}

func (s *Static) OnChange(func(core.Identity)) func() {
	return func() {}
}

// Session is a switchable provider with auth-state-changed notification.
type Session struct {
	mu        sync.Mutex
	identity  core.Identity
	callbacks map[int]func(core.Identity)
	nextID    int
}

func NewSession() *Session {
	return &Session{callbacks: map[int]func(core.Identity){}}
}

func (s *Session) Current() core.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SignIn switches the current identity and notifies observers. A zero
// identity signs out.
func (s *Session) SignIn(identity core.Identity) {
	s.mu.Lock()
	s.identity = identity
	callbacks := lo.Values(s.callbacks)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(identity)
	}
}

func (s *Session) SignOut() {
	s.SignIn(core.Identity{})
}

func (s *Session) OnChange(fn func(core.Identity)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.callbacks, id)
	}
}
