package moderation

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
)

// ExpiryKey identifies one scheduled expiry
type ExpiryKey struct {
	GuildID string
	UserID  string
}

// FireFunc handles a due expiry
type FireFunc func(ctx context.Context, guildID, userID string) error

type expiry struct {
	key   ExpiryKey
	at    time.Time
	index int
}

type expiryHeap []*expiry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*expiry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler fires timed-mute expiries. Entries are kept in a min-heap
// ordered by expiry and served by a single goroutine; an entry never fires
// before its time. Arming a key again replaces its pending entry.
type Scheduler struct {
	mu      sync.Mutex
	entries expiryHeap
	byKey   map[ExpiryKey]*expiry
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	stopped sync.Once
	started bool
}

// NewScheduler creates an idle scheduler; call Start to begin firing
func NewScheduler() *Scheduler {
	return &Scheduler{
		byKey: make(map[ExpiryKey]*expiry),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Arm schedules guildID/userID to fire at at
func (s *Scheduler) Arm(guildID, userID string, at time.Time) {
	key := ExpiryKey{GuildID: guildID, UserID: userID}

	s.mu.Lock()
	if e, ok := s.byKey[key]; ok {
		e.at = at
		heap.Fix(&s.entries, e.index)
	} else {
		e := &expiry{key: key, at: at}
		heap.Push(&s.entries, e)
		s.byKey[key] = e
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of armed entries
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Next returns the earliest armed entry
func (s *Scheduler) Next() (ExpiryKey, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return ExpiryKey{}, time.Time{}, false
	}
	return s.entries[0].key, s.entries[0].at, true
}

// Start runs the firing loop until Stop or ctx is done. Each due entry is
// handled in its own goroutine behind the anti-crash recovery.
func (s *Scheduler) Start(ctx context.Context, fire FireFunc) {
	s.once.Do(func() {
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		go s.run(ctx, fire)
	})
}

// Stop ends the firing loop and waits for it to exit
func (s *Scheduler) Stop() {
	s.stopped.Do(func() { close(s.stop) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) due(now time.Time) ([]ExpiryKey, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []ExpiryKey
	for len(s.entries) > 0 && !s.entries[0].at.After(now) {
		e := heap.Pop(&s.entries).(*expiry)
		delete(s.byKey, e.key)
		keys = append(keys, e.key)
	}
	if len(s.entries) == 0 {
		return keys, -1
	}
	return keys, s.entries[0].at.Sub(now)
}

func (s *Scheduler) run(ctx context.Context, fire FireFunc) {
	defer close(s.done)
	logger.System("Programador de expiraciones iniciado", "Scheduler")

	for {
		keys, wait := s.due(time.Now())
		for _, k := range keys {
			k := k
			apperrors.Go(func() {
				if err := fire(ctx, k.GuildID, k.UserID); err != nil {
					logger.Error(fmt.Sprintf("Expiración fallida para %s en %s: %v", k.UserID, k.GuildID, err), "Scheduler")
				}
			})
		}

		var timer *time.Timer
		var tick <-chan time.Time
		if wait >= 0 {
			timer = time.NewTimer(wait)
			tick = timer.C
		}

		select {
		case <-tick:
		case <-s.wake:
		case <-s.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Rebuild arms every persisted timed mute. Expiries already in the past fire
// on the next loop iteration.
func (s *Scheduler) Rebuild(ctx context.Context, store ConfigStore) (int, error) {
	configs, err := store.ListGuildConfigs(ctx, bson.M{"users.muted": true})
	if err != nil {
		return 0, err
	}

	armed := 0
	for _, cfg := range configs {
		for _, rec := range cfg.Users {
			if rec.Muted && rec.MutedUntil != nil {
				s.Arm(cfg.GuildID, rec.UserID, *rec.MutedUntil)
				armed++
			}
		}
	}
	logger.System(fmt.Sprintf("%d expiraciones reprogramadas desde la base de datos", armed), "Scheduler")
	return armed, nil
}
