// Package scheduler runs one recurring trigger per enabled backup
// definition. Each trigger owns a timer loop goroutine; fires execute on
// a bounded worker pool and persist their outcome into the job ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"backupd/app/models"
	"backupd/app/schedule"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var ErrTriggerExists = errors.New("trigger already registered")

// Action performs the actual backup for a definition. It is an external
// collaborator; the engine only cares about the returned detail line and
// error.
type Action interface {
	Run(ctx context.Context, def models.BackupDefinition) (string, error)
}

type ActionFunc func(ctx context.Context, def models.BackupDefinition) (string, error)

func (f ActionFunc) Run(ctx context.Context, def models.BackupDefinition) (string, error) {
	return f(ctx, def)
}

// Ledger is the slice of the job store the engine writes fire outcomes to.
type Ledger interface {
	UpdateOnFire(jobID uint, status string, lastRun, nextDue time.Time, logLine string) error
}

type Config struct {
	Workers  int // concurrent fires across all definitions
	MaxSkips int // consecutive skipped overlaps before warning
}

type Engine struct {
	cfg    Config
	action Action
	ledger Ledger
	log    zerolog.Logger
	now    func() time.Time

	sem *semaphore.Weighted

	mu       sync.Mutex
	triggers map[uint]*trigger
	ctx      context.Context
	cancel   context.CancelFunc

	fires sync.WaitGroup
}

type trigger struct {
	def      models.BackupDefinition
	jobID    uint
	interval time.Duration
	cancel   context.CancelFunc

	inFlight int32
	skips    int32
}

// tryAcquire marks the trigger as firing; false if a fire is already in
// flight for this definition.
func (t *trigger) tryAcquire() bool {
	return atomic.CompareAndSwapInt32(&t.inFlight, 0, 1)
}

func (t *trigger) release() { atomic.StoreInt32(&t.inFlight, 0) }

func New(cfg Config, action Action, ledger Ledger, log zerolog.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 20
	}
	if cfg.MaxSkips <= 0 {
		cfg.MaxSkips = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:      cfg,
		action:   action,
		ledger:   ledger,
		log:      log,
		now:      time.Now,
		sem:      semaphore.NewWeighted(int64(cfg.Workers)),
		triggers: make(map[uint]*trigger),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetClock overrides the engine's time source. Call before the first
// Register; trigger loops read the clock without locking.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Register creates the live trigger for a definition. The caller must
// have created the backing ledger row first; a duplicate registration
// for the same definition id is an error.
func (e *Engine) Register(def models.BackupDefinition, jobID uint, nextDue time.Time, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("register %q: interval must be positive", def.Name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return fmt.Errorf("register %q: engine stopped", def.Name)
	}
	if _, ok := e.triggers[def.ID]; ok {
		return fmt.Errorf("register %q: %w", def.Name, ErrTriggerExists)
	}
	ctx, cancel := context.WithCancel(e.ctx)
	t := &trigger{def: def, jobID: jobID, interval: interval, cancel: cancel}
	e.triggers[def.ID] = t
	go e.run(ctx, t, nextDue)
	e.log.Info().Str("backup", def.Name).Time("next_due", nextDue).Dur("interval", interval).Msg("trigger registered")
	return nil
}

// Deregister cancels all future fires for a definition. An in-flight
// fire is not interrupted; its ledger update still lands.
func (e *Engine) Deregister(backupID uint) bool {
	e.mu.Lock()
	t, ok := e.triggers[backupID]
	if ok {
		delete(e.triggers, backupID)
	}
	e.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	e.log.Info().Str("backup", t.def.Name).Msg("trigger removed")
	return true
}

// Registered reports whether a live trigger exists for the definition.
func (e *Engine) Registered(backupID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.triggers[backupID]
	return ok
}

// Stop cancels every trigger and waits for in-flight fires, bounded by ctx.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.cancel()
	e.triggers = make(map[uint]*trigger)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.fires.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.log.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		e.log.Warn().Msg("scheduler stop timed out waiting for in-flight fires")
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, t *trigger, nextDue time.Time) {
	for {
		timer := time.NewTimer(nextDue.Sub(e.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			due := nextDue
			nextDue = schedule.NextDue(due, t.interval, e.now())
			e.dispatch(ctx, t, due, nextDue)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, t *trigger, due, next time.Time) {
	if !t.tryAcquire() {
		n := atomic.AddInt32(&t.skips, 1)
		ev := e.log.Debug()
		if int(n) >= e.cfg.MaxSkips {
			ev = e.log.Warn()
		}
		ev.Str("backup", t.def.Name).Time("due", due).Int32("skipped", n).Msg("fire skipped: previous run still in flight")
		return
	}
	if err := e.sem.Acquire(ctx, 1); err != nil {
		t.release()
		return
	}
	e.fires.Add(1)
	go func() {
		defer e.fires.Done()
		defer e.sem.Release(1)
		defer t.release()
		e.fire(t, due, next)
		atomic.StoreInt32(&t.skips, 0)
	}()
}

func (e *Engine) fire(t *trigger, due, next time.Time) {
	started := e.now().UTC()
	detail, err := e.runAction(t.def)

	status := models.JobStatusSuccess
	line := fmt.Sprintf("%s fired %q", started.Format(time.RFC3339), t.def.Name)
	if detail != "" {
		line += ": " + detail
	}
	if err != nil {
		status = models.JobStatusFailure
		line += ": " + err.Error()
		e.log.Error().Err(err).Str("backup", t.def.Name).Msg("backup action failed")
	} else {
		e.log.Info().Str("backup", t.def.Name).Time("next_due", next).Msg("backup action completed")
	}

	// A ledger write failure must not stop the schedule; the trigger
	// keeps running on its in-memory state.
	if uerr := e.ledger.UpdateOnFire(t.jobID, status, started, next, line); uerr != nil {
		e.log.Error().Err(uerr).Str("backup", t.def.Name).Msg("ledger update failed")
	}
}

func (e *Engine) runAction(def models.BackupDefinition) (detail string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backup action panicked: %v", r)
		}
	}()
	if e.action == nil {
		return "", errors.New("no backup action configured")
	}
	return e.action.Run(e.ctx, def)
}
