package vault

import (
	"sync"
	"time"
)

// session is one server-side authenticated session, keyed by username in
// the sessionTable and bound to the connection it was created on.
type session struct {
	username string
	connID   string
	loginAt  time.Time
}

// sessionTable is the logged-in-users table: at most one active session per
// username server-wide. All mutations happen on the server's single dispatch
// goroutine, which is what makes loginIfAbsent's check-then-insert atomic;
// the RWMutex only makes read-side observation (IsLoggedIn) safe from other
// goroutines.
type sessionTable struct {
	mu     sync.RWMutex
	byUser map[string]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{byUser: make(map[string]*session)}
}

// loginIfAbsent inserts a session for username unless one already exists.
// Reports whether the slot was taken.
func (t *sessionTable) loginIfAbsent(username, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byUser[username]; ok {
		return false
	}
	t.byUser[username] = &session{username: username, connID: connID, loginAt: time.Now()}
	return true
}

// logout removes the session for username, reporting whether one existed.
func (t *sessionTable) logout(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.byUser[username]; !ok {
		return false
	}
	delete(t.byUser, username)
	return true
}

func (t *sessionTable) isLoggedIn(username string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.byUser[username]
	return ok
}

// dropConnection logs out every session bound to connID and returns the
// affected usernames.
func (t *sessionTable) dropConnection(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var dropped []string
	for username, s := range t.byUser {
		if s.connID == connID {
			delete(t.byUser, username)
			dropped = append(dropped, username)
		}
	}
	return dropped
}
