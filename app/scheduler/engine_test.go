package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"backupd/app/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerUpdate struct {
	JobID   uint
	Status  string
	LastRun time.Time
	NextDue time.Time
	Line    string
}

type mockLedger struct {
	mu      sync.Mutex
	updates []ledgerUpdate
	err     error
}

func (m *mockLedger) UpdateOnFire(jobID uint, status string, lastRun, nextDue time.Time, logLine string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, ledgerUpdate{JobID: jobID, Status: status, LastRun: lastRun, NextDue: nextDue, Line: logLine})
	return m.err
}

func (m *mockLedger) all() []ledgerUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ledgerUpdate, len(m.updates))
	copy(out, m.updates)
	return out
}

func testDef(id uint, name string) models.BackupDefinition {
	return models.BackupDefinition{ID: id, Name: name, SourcePath: "/data", Destination: "dest", Kind: models.KindFull, Enabled: true}
}

func newTestEngine(t *testing.T, action Action, ledger Ledger) *Engine {
	t.Helper()
	e := New(Config{Workers: 4, MaxSkips: 3}, action, ledger, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = e.Stop(ctx)
	})
	return e
}

func TestRegisterDuplicateFails(t *testing.T) {
	ledger := &mockLedger{}
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) { return "", nil }), ledger)

	def := testDef(1, "nightly")
	far := time.Now().Add(time.Hour)
	require.NoError(t, e.Register(def, 10, far, time.Hour))
	err := e.Register(def, 10, far, time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTriggerExists)
	assert.True(t, e.Registered(def.ID))
}

func TestRegisterRejectsBadInterval(t *testing.T) {
	ledger := &mockLedger{}
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) { return "", nil }), ledger)
	err := e.Register(testDef(1, "x"), 1, time.Now().Add(time.Hour), 0)
	assert.Error(t, err)
	assert.False(t, e.Registered(1))
}

func TestFireWritesLedgerAndReschedules(t *testing.T) {
	ledger := &mockLedger{}
	var fires int32
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		atomic.AddInt32(&fires, 1)
		return "copied", nil
	}), ledger)

	interval := 60 * time.Millisecond
	due := time.Now().Add(20 * time.Millisecond)
	require.NoError(t, e.Register(testDef(1, "nightly"), 10, due, interval))

	time.Sleep(200 * time.Millisecond)

	updates := ledger.all()
	require.GreaterOrEqual(t, len(updates), 2)
	for _, u := range updates {
		assert.Equal(t, uint(10), u.JobID)
		assert.Equal(t, models.JobStatusSuccess, u.Status)
		assert.True(t, u.NextDue.After(u.LastRun))
		assert.Contains(t, u.Line, "nightly")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fires), int32(2))
}

func TestFailedFireKeepsSchedule(t *testing.T) {
	ledger := &mockLedger{}
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		return "", errors.New("disk full")
	}), ledger)

	require.NoError(t, e.Register(testDef(1, "nightly"), 10, time.Now().Add(10*time.Millisecond), 50*time.Millisecond))
	time.Sleep(180 * time.Millisecond)

	updates := ledger.all()
	require.GreaterOrEqual(t, len(updates), 2, "a failed run must not stop future runs")
	for _, u := range updates {
		assert.Equal(t, models.JobStatusFailure, u.Status)
		assert.Contains(t, u.Line, "disk full")
	}
}

func TestPanicInActionIsRecorded(t *testing.T) {
	ledger := &mockLedger{}
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		panic("boom")
	}), ledger)

	require.NoError(t, e.Register(testDef(1, "nightly"), 10, time.Now().Add(10*time.Millisecond), time.Hour))
	time.Sleep(100 * time.Millisecond)

	updates := ledger.all()
	require.Len(t, updates, 1)
	assert.Equal(t, models.JobStatusFailure, updates[0].Status)
	assert.Contains(t, updates[0].Line, "panicked")
}

func TestNoOverlappingFiresForOneDefinition(t *testing.T) {
	ledger := &mockLedger{}
	var inFlight, maxInFlight int32
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(120 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "", nil
	}), ledger)

	// Nominal dues arrive much faster than the action completes.
	require.NoError(t, e.Register(testDef(1, "slow"), 10, time.Now().Add(10*time.Millisecond), 30*time.Millisecond))
	time.Sleep(400 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "overlapping dues must coalesce, not stack")
	// Skipped fires are dropped, not queued: far fewer completions than
	// nominal dues in the window.
	assert.LessOrEqual(t, len(ledger.all()), 4)
}

func TestIndependentDefinitionsFireConcurrently(t *testing.T) {
	ledger := &mockLedger{}
	var inFlight, maxInFlight int32
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		time.Sleep(80 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return "", nil
	}), ledger)

	due := time.Now().Add(15 * time.Millisecond)
	require.NoError(t, e.Register(testDef(1, "a"), 1, due, time.Hour))
	require.NoError(t, e.Register(testDef(2, "b"), 2, due, time.Hour))
	time.Sleep(200 * time.Millisecond)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2), "one definition's fire must not block another's")
}

func TestDeregisterCancelsFutureFiresOnly(t *testing.T) {
	ledger := &mockLedger{}
	started := make(chan struct{}, 1)
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		started <- struct{}{}
		time.Sleep(80 * time.Millisecond)
		return "", nil
	}), ledger)

	require.NoError(t, e.Register(testDef(1, "nightly"), 10, time.Now().Add(10*time.Millisecond), 40*time.Millisecond))

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("fire never started")
	}
	// Deregister while the first fire is in flight.
	assert.True(t, e.Deregister(1))
	assert.False(t, e.Registered(1))

	time.Sleep(250 * time.Millisecond)
	updates := ledger.all()
	// The in-flight fire still wrote its outcome; nothing fired after.
	require.Len(t, updates, 1)
	assert.False(t, e.Deregister(1), "second deregister is a no-op")
}

func TestLedgerFailureDoesNotStopSchedule(t *testing.T) {
	ledger := &mockLedger{err: errors.New("store down")}
	e := newTestEngine(t, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		return "", nil
	}), ledger)

	require.NoError(t, e.Register(testDef(1, "nightly"), 10, time.Now().Add(10*time.Millisecond), 50*time.Millisecond))
	time.Sleep(180 * time.Millisecond)

	assert.GreaterOrEqual(t, len(ledger.all()), 2, "dispatcher must survive ledger errors")
}

func TestStopWaitsForInFlightFire(t *testing.T) {
	ledger := &mockLedger{}
	started := make(chan struct{}, 1)
	e := New(Config{Workers: 2, MaxSkips: 3}, ActionFunc(func(context.Context, models.BackupDefinition) (string, error) {
		started <- struct{}{}
		time.Sleep(60 * time.Millisecond)
		return "", nil
	}), ledger, zerolog.Nop())

	require.NoError(t, e.Register(testDef(1, "nightly"), 10, time.Now().Add(5*time.Millisecond), time.Hour))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(ctx))
	require.Len(t, ledger.all(), 1, "in-flight fire completes before Stop returns")

	err := e.Register(testDef(2, "late"), 11, time.Now().Add(time.Hour), time.Hour)
	assert.Error(t, err, "stopped engine refuses new registrations")
}
