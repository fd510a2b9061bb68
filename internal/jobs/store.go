package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nodo1014/indexer/internal/logging"
	"github.com/nodo1014/indexer/internal/session"
)

// ErrUnknownJob is returned when a control action addresses a job the store
// has never seen.
var ErrUnknownJob = errors.New("unknown job")

// ControlSender issues a control request to the remote worker. The action is
// the worker's wire verb (pause, resume, stop, delete).
type ControlSender interface {
	Control(ctx context.Context, jobID, action string) error
}

// Journal receives immutable records of terminal job transitions.
type Journal interface {
	RecordCompleted(ctx context.Context, entry session.CompletedJob) (bool, error)
}

// Handler observes store changes. For per-job changes the updated snapshot is
// populated; batch summary frames deliver a zero Job.
type Handler func(ev Event, job Job)

// Store is the canonical in-memory table of known jobs. It is the sole writer
// of job status and progress; the only exception is the transient optimistic
// snapshot written by RequestControl, which the next authoritative event
// replaces outright.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*Job
	byPath  map[string]string
	order   []string
	control ControlSender
	journal Journal
	logger  *slog.Logger

	subMu   sync.Mutex
	nextSub int
	subs    map[int]Handler
}

// Option customizes store construction.
type Option func(*Store)

// WithControlSender wires the worker control surface used by RequestControl.
func WithControlSender(sender ControlSender) Option {
	return func(s *Store) { s.control = sender }
}

// WithJournal wires the completed-jobs journal.
func WithJournal(journal Journal) Option {
	return func(s *Store) { s.journal = journal }
}

// WithLogger attaches a logger; a no-op logger is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore builds an empty job table. One store exists per session; pass it
// by reference to whatever needs it.
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]*Job),
		byPath: make(map[string]string),
		subs:   make(map[int]Handler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.logger = logging.WithComponent(s.logger, "jobs")
	return s
}

// Subscribe registers a change handler and returns its remover. Handler
// panics are caught and logged so one failing subscriber cannot block
// delivery to the others.
func (s *Store) Subscribe(handler Handler) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = handler
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(ev Event, job Job) {
	s.subMu.Lock()
	handlers := make([]Handler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subMu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("subscriber panicked", slog.Any("panic", r))
				}
			}()
			handler(ev, job)
		}()
	}
}

// ApplyEvent merges one authoritative push event into the table. Events are
// applied in arrival order; a terminal status additionally lands in the
// completed journal, where duplicate delivery is absorbed by the
// (file_path, status) key.
func (s *Store) ApplyEvent(ctx context.Context, ev Event) {
	if !ev.addressesJob() {
		s.applyBatchEvent(ctx, ev)
		return
	}

	s.mu.Lock()
	job := s.resolveLocked(ev)

	if status, ok := ParseStatus(ev.Status); ok {
		job.Status = status
	} else if ev.Status != "" {
		s.logger.Warn("event carried unknown status", slog.String("status", ev.Status), slog.String("job", job.ID))
	}
	if ev.Progress != nil {
		job.Progress = clampProgress(*ev.Progress)
	}
	if ev.FileName != "" {
		job.FileName = ev.FileName
	}
	if ev.Language != "" && job.Language == "" {
		job.Language = ev.Language
	}
	if ev.Model != "" && job.Model == "" {
		job.Model = ev.Model
	}
	if ev.OutputPath != "" {
		job.OutputPath = ev.OutputPath
	}
	if job.Status == StatusFailed {
		if ev.Message != "" {
			job.Error = ev.Message
		}
	} else {
		job.Error = ""
	}

	// Authoritative events replace optimistic snapshots outright.
	job.Optimistic = false
	job.Since = time.Time{}
	job.UpdatedAt = time.Now().UTC()

	snapshot := *job
	s.mu.Unlock()

	if snapshot.IsTerminal() {
		s.recordTerminal(ctx, snapshot)
	}
	s.notify(ev, snapshot)
}

func (s *Store) applyBatchEvent(ctx context.Context, ev Event) {
	if ev.Type == EventBatchCancelled {
		// The worker abandoned the whole batch: every job still in flight is
		// authoritatively cancelled.
		s.mu.Lock()
		var cancelled []Job
		for _, id := range s.order {
			job := s.byID[id]
			if job.IsTerminal() {
				continue
			}
			job.Status = StatusCancelled
			job.Progress = 0
			job.Optimistic = false
			job.Since = time.Time{}
			job.UpdatedAt = time.Now().UTC()
			cancelled = append(cancelled, *job)
		}
		s.mu.Unlock()
		for _, job := range cancelled {
			s.recordTerminal(ctx, job)
		}
	}
	s.notify(ev, Job{})
}

// resolveLocked finds or creates the record addressed by an event.
func (s *Store) resolveLocked(ev Event) *Job {
	id := ev.JobID
	if id == "" {
		if mapped, ok := s.byPath[ev.FilePath]; ok {
			id = mapped
		} else {
			id = ev.FilePath
		}
	}
	if job, ok := s.byID[id]; ok {
		if ev.FilePath != "" && job.FilePath == "" {
			job.FilePath = ev.FilePath
			s.byPath[ev.FilePath] = id
		}
		return job
	}

	job := &Job{
		ID:       id,
		FilePath: ev.FilePath,
		FileName: ev.FileName,
		Status:   StatusQueued,
		Language: ev.Language,
		Model:    ev.Model,
	}
	s.byID[id] = job
	s.order = append(s.order, id)
	if ev.FilePath != "" {
		s.byPath[ev.FilePath] = id
	}
	return job
}

func (s *Store) recordTerminal(ctx context.Context, job Job) {
	if s.journal == nil || job.FilePath == "" {
		return
	}
	_, err := s.journal.RecordCompleted(ctx, session.CompletedJob{
		JobID:        job.ID,
		FilePath:     job.FilePath,
		FileName:     job.FileName,
		Status:       string(job.Status),
		Language:     job.Language,
		Model:        job.Model,
		ErrorMessage: job.Error,
		OutputPath:   job.OutputPath,
		CompletedAt:  job.UpdatedAt,
	})
	if err != nil {
		s.logger.Error("record terminal transition", logging.Error(err), slog.String("job", job.ID))
	}
}

// RequestControl writes the optimistic state for a user action and issues the
// worker request asynchronously. The returned channel delivers the request's
// outcome; a failure does not roll back the optimistic state, it is the
// caller's to surface.
func (s *Store) RequestControl(ctx context.Context, jobID string, action Action) (<-chan error, error) {
	s.mu.Lock()
	job, ok := s.byID[jobID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	job.Status = action.optimisticStatus()
	if action == ActionCancel {
		job.Progress = 0
	}
	job.Optimistic = true
	job.Since = time.Now().UTC()
	job.UpdatedAt = job.Since
	snapshot := *job
	s.mu.Unlock()

	s.notify(Event{Type: EventStatusUpdate, JobID: jobID, Status: string(snapshot.Status)}, snapshot)

	result := make(chan error, 1)
	if s.control == nil {
		result <- errors.New("no control sender configured")
		return result, nil
	}
	go func() {
		err := s.control.Control(ctx, jobID, action.wireAction())
		if err != nil {
			s.logger.Warn("control request failed",
				slog.String("job", jobID),
				slog.String("action", string(action)),
				logging.Error(err))
		}
		result <- err
	}()
	return result, nil
}

// Seed replaces the table with an authoritative listing from the worker,
// preserving the listing's order. It is used on startup and after a
// batch-complete notification to resynchronize.
func (s *Store) Seed(ctx context.Context, records []Job) {
	s.mu.Lock()
	s.byID = make(map[string]*Job, len(records))
	s.byPath = make(map[string]string, len(records))
	s.order = s.order[:0]
	var terminal []Job
	for i := range records {
		job := records[i]
		if job.ID == "" {
			job.ID = job.FilePath
		}
		if job.ID == "" {
			continue
		}
		job.Optimistic = false
		job.Since = time.Time{}
		if job.UpdatedAt.IsZero() {
			job.UpdatedAt = time.Now().UTC()
		}
		stored := job
		s.byID[job.ID] = &stored
		s.order = append(s.order, job.ID)
		if job.FilePath != "" {
			s.byPath[job.FilePath] = job.ID
		}
		if job.IsTerminal() {
			terminal = append(terminal, job)
		}
	}
	s.mu.Unlock()
	for _, job := range terminal {
		s.recordTerminal(ctx, job)
	}
}

// Get returns a snapshot of one job.
func (s *Store) Get(jobID string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ListActive returns all non-terminal jobs in arrival order.
func (s *Store) ListActive() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		job := s.byID[id]
		if job.IsTerminal() {
			continue
		}
		out = append(out, *job)
	}
	return out
}

// ListAll returns every known job in arrival order, terminal included.
func (s *Store) ListAll() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}

// Counts aggregates jobs per status for presentation.
func (s *Store) Counts() map[Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Status]int, len(allStatuses))
	for _, id := range s.order {
		counts[s.byID[id].Status]++
	}
	return counts
}

func clampProgress(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
