// Package pending tracks, per user, the one multi-step action awaiting a
// follow-up event (a file upload or a delete confirmation).
package pending

import (
	"sync"
	"time"

	"github.com/eringen/sitebot/site"
)

// Kind is the type of action a user has requested.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindUpdate
	KindDeleteConfirm
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDeleteConfirm:
		return "delete_confirm"
	default:
		return "unknown"
	}
}

// Action is a pending request. SiteID is empty for KindCreate.
type Action struct {
	Kind   Kind
	SiteID string
	SetAt  time.Time
}

// AwaitsUpload reports whether the action is satisfied by a file.
func (a Action) AwaitsUpload() bool {
	return a.Kind == KindCreate || a.Kind == KindUpdate
}

func Create() Action { return Action{Kind: KindCreate} }

func Update(id string) Action { return Action{Kind: KindUpdate, SiteID: id} }

func DeleteConfirm(id string) Action { return Action{Kind: KindDeleteConfirm, SiteID: id} }

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Tracker holds at most one Action per user. Actions older than the idle TTL
// are treated as absent and swept periodically.
type Tracker struct {
	mu    sync.Mutex
	slots map[site.UserID]Action
	locks map[site.UserID]*userLock
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a Tracker. A zero ttl disables expiry.
func NewTracker(ttl time.Duration, opts ...Option) *Tracker {
	t := &Tracker{
		slots: make(map[site.UserID]Action),
		locks: make(map[site.UserID]*userLock),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if ttl > 0 {
		go t.cleanup()
	} else {
		close(t.done)
	}
	return t
}

func (t *Tracker) cleanup() {
	defer close(t.done)
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			for user, a := range t.slots {
				if t.expired(a) {
					delete(t.slots, user)
				}
			}
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) expired(a Action) bool {
	return t.ttl > 0 && t.now().Sub(a.SetAt) >= t.ttl
}

// Set replaces whatever action user had pending.
func (t *Tracker) Set(user site.UserID, a Action) {
	a.SetAt = t.now()
	t.mu.Lock()
	t.slots[user] = a
	t.mu.Unlock()
}

// Get returns the user's live pending action.
func (t *Tracker) Get(user site.UserID) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.slots[user]
	if !ok {
		return Action{}, false
	}
	if t.expired(a) {
		delete(t.slots, user)
		return Action{}, false
	}
	return a, true
}

// Clear drops the user's pending action, if any.
func (t *Tracker) Clear(user site.UserID) {
	t.mu.Lock()
	delete(t.slots, user)
	t.mu.Unlock()
}

// Take returns and clears the user's pending action in one step, so the same
// action is never handed out twice.
func (t *Tracker) Take(user site.UserID) (Action, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.slots[user]
	if !ok {
		return Action{}, false
	}
	delete(t.slots, user)
	if t.expired(a) {
		return Action{}, false
	}
	return a, true
}

// Lock acquires the user's exclusive section and returns its release func.
// Event handling for one user runs under this lock so that reading, acting on
// and clearing the pending action cannot interleave.
func (t *Tracker) Lock(user site.UserID) (unlock func()) {
	t.mu.Lock()
	l := t.locks[user]
	if l == nil {
		l = &userLock{}
		t.locks[user] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			t.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(t.locks, user)
			}
			t.mu.Unlock()
		})
	}
}

// Len reports the number of stored actions, expired ones included.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Close stops the sweeper.
func (t *Tracker) Close() error {
	t.once.Do(func() {
		close(t.stop)
	})
	<-t.done
	return nil
}
