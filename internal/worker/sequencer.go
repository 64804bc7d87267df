package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSequencerClosed is returned for submissions after Close
var ErrSequencerClosed = errors.New("sequencer closed")

// DefaultLockTimeout is how long a job may hold the slot before it is reclaimed
const DefaultLockTimeout = 60 * time.Second

// Sequencer runs at most one job at a time. Waiting jobs are started in
// arrival order. The active slot is held under a timestamped lock; a holder
// that exceeds the lock timeout has its context cancelled and loses the slot,
// and its late release is ignored. The timeout cannot tell a stalled job from
// a slow one, so it must exceed the longest legitimate run.
type Sequencer struct {
	mu          sync.Mutex
	active      *slotLock
	queue       []*ticket
	closed      bool
	lockTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

type slotLock struct {
	token    string
	jobID    string
	acquired time.Time
	cancel   context.CancelFunc
}

type ticket struct {
	jobID string
	ready chan struct{} // closed when the slot is granted
}

// Status is a snapshot of the sequencer
type Status struct {
	ActiveJob string        `json:"active_job,omitempty"`
	LockAge   time.Duration `json:"lock_age"`
	Queued    int           `json:"queued"`
}

// NewSequencer creates a sequencer; lockTimeout <= 0 uses DefaultLockTimeout
func NewSequencer(lockTimeout time.Duration, logger *slog.Logger) *Sequencer {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		lockTimeout: lockTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// Submit waits for the slot, runs job and returns its result. It returns an
// error only when ctx ends while the job is still queued or the sequencer
// is closed.
func (s *Sequencer) Submit(ctx context.Context, job Job) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := &ticket{jobID: uuid.NewString(), ready: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSequencerClosed
	}
	s.queue = append(s.queue, t)
	s.promoteLocked()
	s.mu.Unlock()

	if err := s.await(ctx, t); err != nil {
		return nil, err
	}

	lock, jobCtx := s.acquire(ctx, t)
	defer s.release(lock)

	s.logger.Debug("job started", slog.String("job", t.jobID))
	return job.Execute(jobCtx), nil
}

// await blocks until t is granted the slot, reclaiming a stale lock when
// the holder overruns
func (s *Sequencer) await(ctx context.Context, t *ticket) error {
	for {
		s.mu.Lock()
		wait := s.lockTimeout
		if s.active != nil {
			wait = s.active.acquired.Add(s.lockTimeout).Sub(s.now())
		}
		s.mu.Unlock()
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-t.ready:
			timer.Stop()
			return nil
		case <-ctx.Done():
			timer.Stop()
			s.abandon(t)
			return ctx.Err()
		case <-timer.C:
			s.mu.Lock()
			s.promoteLocked()
			s.mu.Unlock()
		}
	}
}

// acquire turns a granted ticket into the active lock
func (s *Sequencer) acquire(ctx context.Context, t *ticket) (*slotLock, context.Context) {
	jobCtx, cancel := context.WithCancel(ctx)
	lock := &slotLock{
		token:    uuid.NewString(),
		jobID:    t.jobID,
		acquired: s.now(),
		cancel:   cancel,
	}

	s.mu.Lock()
	if s.active != nil && s.active.jobID == t.jobID {
		s.active = lock
	} else {
		// The reservation went stale before the job started
		s.logger.Warn("job slot reclaimed before start", slog.String("job", t.jobID))
	}
	s.mu.Unlock()
	return lock, jobCtx
}

// release frees the slot if lock still holds it
func (s *Sequencer) release(lock *slotLock) {
	lock.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.token != lock.token {
		s.logger.Warn("ignoring late release of reclaimed lock", slog.String("job", lock.jobID))
		return
	}
	s.active = nil
	s.logger.Debug("job finished",
		slog.String("job", lock.jobID),
		slog.Duration("held", s.now().Sub(lock.acquired)))
	s.promoteLocked()
}

// abandon removes a queued ticket whose caller gave up. A ticket granted in
// the meantime passes the slot on.
func (s *Sequencer) abandon(t *ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, q := range s.queue {
		if q == t {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}

	select {
	case <-t.ready:
		if s.active != nil && s.active.jobID == t.jobID {
			s.active = nil
		}
		s.promoteLocked()
	default:
	}
}

// promoteLocked reclaims a stale lock and grants a free slot to the queue head.
// s.mu must be held.
func (s *Sequencer) promoteLocked() {
	if s.active != nil {
		age := s.now().Sub(s.active.acquired)
		if age < s.lockTimeout {
			return
		}
		s.logger.Warn("reclaiming stale job lock",
			slog.String("job", s.active.jobID),
			slog.Duration("age", age),
			slog.Duration("timeout", s.lockTimeout))
		s.active.cancel()
		s.active = nil
	}

	if len(s.queue) == 0 {
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	// Hold the slot until the granted job installs its own lock
	s.active = &slotLock{jobID: next.jobID, acquired: s.now(), cancel: func() {}}
	close(next.ready)
}

// Status reports the active job, its lock age and the queue length
func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Queued: len(s.queue)}
	if s.active != nil {
		st.ActiveJob = s.active.jobID
		st.LockAge = s.now().Sub(s.active.acquired)
	}
	return st
}

// Close rejects further submissions; queued and running jobs finish normally
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
