// Package session tracks the client's login state and key material and runs
// the inactivity auto-logout timer.
//
// The session races two logout paths against each other: the user's explicit
// logout command and the background timer. Both funnel through a single
// state transition under the mutex, so exactly one of them ever sends the
// logout request, and the session always ends logged out.
package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
)

// SendFunc transmits the logout request for the current session over the
// wire. It is supplied at login time and invoked at most once.
type SendFunc func() error

// Session holds the state of one authenticated client connection. The
// symmetric key is populated only after a successful login re-derives it
// locally; it never arrives over the wire.
type Session struct {
	mu            sync.Mutex
	username      string
	key           *cryptox.DerivedKey
	loggedIn      bool
	timer         *time.Timer
	timeout       time.Duration
	sendLogout    SendFunc
	onSendFailure func(error)
}

// New returns a logged-out session with the given inactivity timeout.
//
// onSendFailure runs on the timer goroutine when the synthesized logout
// could not be transmitted. An unsent logout leaves the server session
// dangling, so the owner must react (drop the connection, reconnect); a nil
// callback downgrades the failure to a log line.
func New(timeout time.Duration, onSendFailure func(error)) *Session {
	return &Session{timeout: timeout, onSendFailure: onSendFailure}
}

// Begin transitions the session to logged in, stores the derived key, and
// arms the auto-logout timer. sendLogout is kept for whichever logout path
// wins later. Fails with ErrorUserAlreadyLoggedIn if a session is active.
func (s *Session) Begin(username string, key *cryptox.DerivedKey, sendLogout SendFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loggedIn {
		return common.ErrorUserAlreadyLoggedIn
	}

	s.username = username
	s.key = key
	s.loggedIn = true
	s.sendLogout = sendLogout

	return s.armTimer()
}

// armTimer schedules the auto-logout task. At most one timer may be pending
// per session; arming while logged out or while a timer is already pending
// is a programming error.
func (s *Session) armTimer() error {
	if !s.loggedIn {
		return common.ErrorIllegalState
	}
	if s.timer != nil {
		return common.ErrorIllegalState
	}
	s.timer = time.AfterFunc(s.timeout, s.expire)
	return nil
}

// Touch renews the inactivity deadline. Called after every successful
// request send; a no-op when logged out.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || s.timer == nil {
		return
	}
	s.timer.Reset(s.timeout)
}

// expire is the timer callback. If the explicit logout already won the race
// the transition fails and nothing is sent.
func (s *Session) expire() {
	send, ok := s.finish()
	if !ok {
		return
	}
	log.Println("Inactivity deadline reached, logging out")
	if err := send(); err != nil {
		if s.onSendFailure != nil {
			s.onSendFailure(fmt.Errorf("auto-logout failed: %w", err))
			return
		}
		log.Printf("auto-logout failed: %s", err.Error())
	}
}

// finish performs the single LoggedIn -> LoggedOut transition. It returns
// the logout sender and true exactly once per session; every later caller
// gets false. Key material is wiped as part of the transition.
func (s *Session) finish() (SendFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loggedIn {
		return nil, false
	}

	s.loggedIn = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.key != nil {
		common.WipeByteArray(s.key.Key)
		s.key = nil
	}
	s.username = ""

	send := s.sendLogout
	s.sendLogout = nil
	return send, true
}

// Logout ends the session explicitly and sends the logout request, unless
// the auto-logout timer fired first. Fails with ErrorUserNotLoggedIn when
// there is no active session.
func (s *Session) Logout() error {
	send, ok := s.finish()
	if !ok {
		return common.ErrorUserNotLoggedIn
	}
	return send()
}

// Abandon ends the session locally without sending anything. Used after
// account deletion, where the server has already dropped the session, and
// on disconnect. Reports whether a session was active.
func (s *Session) Abandon() bool {
	_, ok := s.finish()
	return ok
}

// IsLoggedIn reports whether a session is active.
func (s *Session) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Username returns the logged-in account name, or "" when logged out.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Key returns the symmetric key derived at login, or nil when logged out.
func (s *Session) Key() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil
	}
	return s.key.Key
}
