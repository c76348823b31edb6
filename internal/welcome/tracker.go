// Package welcome greets new members and keeps the "also welcomes you" line
// of each greeting up to date as people react to it.
package welcome

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// DefaultTTL is how long a greeting keeps collecting reactions
const DefaultTTL = 24 * time.Hour

// Entry is a tracked greeting
type Entry struct {
	GuildID   string
	ChannelID string
	MemberID  string
	Content   string
	Lang      string
	Reactors  []string
	CreatedAt time.Time
}

func (e *Entry) clone() Entry {
	c := *e
	c.Reactors = append([]string(nil), e.Reactors...)
	return c
}

// Tracker remembers greetings by message id
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewTracker creates a tracker whose entries expire after ttl
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register starts tracking a greeting
func (t *Tracker) Register(messageID string, e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t.now()
	}
	e.Reactors = nil
	t.entries[messageID] = &e
}

// lookup returns a live entry, dropping it if expired. Callers hold mu.
func (t *Tracker) lookup(messageID string) (*Entry, bool) {
	e, ok := t.entries[messageID]
	if !ok {
		return nil, false
	}
	if t.now().Sub(e.CreatedAt) > t.ttl {
		delete(t.entries, messageID)
		return nil, false
	}
	return e, true
}

// Get returns a copy of the entry for messageID
func (t *Tracker) Get(messageID string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.lookup(messageID)
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// AddReactor records userID on the greeting. It reports false when the
// greeting is unknown or expired, when userID already reacted, or when
// userID is the welcomed member.
func (t *Tracker) AddReactor(messageID, userID string) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.lookup(messageID)
	if !ok || userID == e.MemberID {
		return Entry{}, false
	}
	for _, r := range e.Reactors {
		if r == userID {
			return Entry{}, false
		}
	}
	e.Reactors = append(e.Reactors, userID)
	return e.clone(), true
}

// Len returns the number of tracked greetings, expired ones included
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Prune drops expired greetings and returns how many were removed
func (t *Tracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for id, e := range t.entries {
		if now.Sub(e.CreatedAt) > t.ttl {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}

// Run prunes every interval until ctx is done
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Prune(); n > 0 {
				logger.Debug(fmt.Sprintf("%d bienvenidas expiradas eliminadas", n), "Welcome")
			}
		}
	}
}
