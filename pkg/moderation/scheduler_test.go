package moderation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firing struct {
	key ExpiryKey
	at  time.Time
}

type fireRecorder struct {
	mu    sync.Mutex
	fired []firing
	ch    chan ExpiryKey
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{ch: make(chan ExpiryKey, 16)}
}

func (r *fireRecorder) fire(_ context.Context, guildID, userID string) error {
	k := ExpiryKey{GuildID: guildID, UserID: userID}
	r.mu.Lock()
	r.fired = append(r.fired, firing{key: k, at: time.Now()})
	r.mu.Unlock()
	r.ch <- k
	return nil
}

func (r *fireRecorder) wait(t *testing.T, timeout time.Duration) ExpiryKey {
	t.Helper()
	select {
	case k := <-r.ch:
		return k
	case <-time.After(timeout):
		t.Fatal("expiry did not fire")
		return ExpiryKey{}
	}
}

func TestSchedulerNeverFiresEarly(t *testing.T) {
	s := NewScheduler()
	rec := newFireRecorder()
	s.Start(context.Background(), rec.fire)
	defer s.Stop()

	at := time.Now().Add(80 * time.Millisecond)
	s.Arm(testGuild, "u1", at)

	k := rec.wait(t, 2*time.Second)
	assert.Equal(t, ExpiryKey{GuildID: testGuild, UserID: "u1"}, k)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.fired, 1)
	assert.False(t, rec.fired[0].at.Before(at))
	assert.Zero(t, s.Pending())
}

func TestSchedulerFiresInOrder(t *testing.T) {
	s := NewScheduler()
	rec := newFireRecorder()

	now := time.Now()
	s.Arm(testGuild, "late", now.Add(120*time.Millisecond))
	s.Arm(testGuild, "early", now.Add(40*time.Millisecond))

	k, _, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "early", k.UserID)

	s.Start(context.Background(), rec.fire)
	defer s.Stop()

	assert.Equal(t, "early", rec.wait(t, 2*time.Second).UserID)
	assert.Equal(t, "late", rec.wait(t, 2*time.Second).UserID)
}

func TestSchedulerRearmReplaces(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.Arm(testGuild, "u1", now.Add(time.Hour))
	s.Arm(testGuild, "u2", now.Add(2*time.Hour))
	s.Arm(testGuild, "u1", now.Add(3*time.Hour))

	assert.Equal(t, 2, s.Pending())
	k, at, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "u2", k.UserID)
	assert.True(t, at.Equal(now.Add(2*time.Hour)))
}

func TestSchedulerPastExpiryFiresImmediately(t *testing.T) {
	s := NewScheduler()
	rec := newFireRecorder()
	s.Arm(testGuild, "u1", time.Now().Add(-time.Minute))

	s.Start(context.Background(), rec.fire)
	defer s.Stop()

	assert.Equal(t, "u1", rec.wait(t, time.Second).UserID)
}

func TestSchedulerStopsOnContext(t *testing.T) {
	s := NewScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, newFireRecorder().fire)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
	}
	s.Stop()
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	s := NewScheduler()
	start := time.Now()
	s.Stop()
	s.Stop()
	assert.Less(t, time.Since(start), time.Second)
}

func TestSchedulerNext(t *testing.T) {
	s := NewScheduler()
	_, _, ok := s.Next()
	assert.False(t, ok)
}

func TestSchedulerRebuild(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	until := f.now.Add(time.Hour)
	require.NoError(t, f.store.UpsertUserRecord(ctx, testGuild, "u1", models.MutedUntil(&until)))
	require.NoError(t, f.store.UpsertUserRecord(ctx, testGuild, "u2", models.MutedUntil(nil)))
	require.NoError(t, f.store.UpsertUserRecord(ctx, "g2", "u3", models.MutedUntil(&until)))
	require.NoError(t, f.store.UpsertUserRecord(ctx, "g2", "u4", models.Unmuted()))

	s := NewScheduler()
	n, err := s.Rebuild(ctx, f.store)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "permanent and unmuted records are not armed")
	assert.Equal(t, 2, s.Pending())
}

func TestSchedulerDrivesExpire(t *testing.T) {
	f := newFixture()
	f.now = time.Now()
	s := NewScheduler()
	f.svc.armer = s

	_, err := f.svc.Mute(context.Background(), MuteRequest{GuildID: testGuild, UserID: "u1", Duration: "50ms"})
	require.NoError(t, err)

	done := make(chan struct{})
	s.Start(context.Background(), func(ctx context.Context, guildID, userID string) error {
		f.now = time.Now()
		defer close(done)
		return f.svc.Expire(ctx, guildID, userID)
	})
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry did not fire")
	}
	assert.False(t, f.store.record(testGuild, "u1").Muted)
	assert.Contains(t, f.sink.kinds(), EventAutoUnmute)
}
