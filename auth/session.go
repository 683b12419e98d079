// Package auth holds the signed-in state of one dashboard and the identity
// provider it is obtained from.
package auth

import (
	"sync"

	"babyshop/models"
)

// Credentials are the provider tokens of a signed-in user. They stay on the
// server.
type Credentials struct {
	IDToken      string
	RefreshToken string
}

// Session is the authenticated user of one dashboard. Components that need the
// user are handed the session explicitly and either take a Snapshot or Observe
// changes until they Stop.
type Session struct {
	mu       sync.Mutex
	user     *models.User
	creds    Credentials
	stopped  bool
	nextSub  int
	watchers map[int]func(*models.User)
}

func NewSession(user models.User, creds Credentials) *Session {
	return &Session{
		user:     &user,
		creds:    creds,
		watchers: map[int]func(*models.User){},
	}
}

// Observe calls fn with the current user now and on every change until the
// returned cancel func or Stop is called. A nil user means signed out.
func (s *Session) Observe(fn func(*models.User)) (cancel func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		fn(nil)
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.watchers[id] = fn
	current := s.copyUser()
	s.mu.Unlock()

	fn(current)
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current user; ok is false once signed out.
func (s *Session) Snapshot() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Session) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Update replaces the user after a profile change. Ignored once stopped.
func (s *Session) Update(user models.User) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.user = &user
	fns := s.snapshotWatchers()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(&user)
	}
}

// Stop signs the session out: observers get a final nil and are dropped.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.user = nil
	s.creds = Credentials{}
	fns := s.snapshotWatchers()
	s.watchers = map[int]func(*models.User){}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
}

func (s *Session) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Session) copyUser() *models.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) snapshotWatchers() []func(*models.User) {
	fns := make([]func(*models.User), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	return fns
}
