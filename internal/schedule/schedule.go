package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Clock supplies the current time and deadlines.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Ledger records which occurrences have already been dispatched, so that several
// running instances of the bot dispatch each occurrence once.
type Ledger interface {
	// Claim reports whether the caller is the first to claim key.
	Claim(ctx context.Context, key string) (bool, error)
}

// Config configures a Scheduler. Zero values fall back to defaults.
type Config struct {
	// Events is the set of events the scheduler knows about. Defaults to Definitions().
	Events          map[Event]Occurrence
	Calendar        Calendar
	Location        *time.Location
	CallbackTimeout time.Duration
	Clock           Clock
	Ledger          Ledger
	Logger          *slog.Logger
}

var ErrAlreadyStarted = errors.New("scheduler already started")

// Scheduler owns the callbacks registered for each event and the deadline at
// which each event fires next.
type Scheduler struct {
	events          map[Event]Occurrence
	calendar        Calendar
	loc             *time.Location
	callbackTimeout time.Duration
	clock           Clock
	ledger          Ledger
	logger          *slog.Logger

	mu       sync.RWMutex
	registry map[Event][]registration
	started  bool
	armed    map[Event]time.Time
	cancels  map[Event]context.CancelFunc

	wg sync.WaitGroup
}

func New(cfg Config) (*Scheduler, error) {
	events := cfg.Events
	if events == nil {
		events = Definitions()
	}
	for ev, occ := range events {
		if err := occ.validate(); err != nil {
			return nil, fmt.Errorf("invalid occurrence for %s: %w", ev, err)
		}
	}

	s := &Scheduler{
		events:          events,
		calendar:        cfg.Calendar,
		loc:             cfg.Location,
		callbackTimeout: cfg.CallbackTimeout,
		clock:           cfg.Clock,
		ledger:          cfg.Ledger,
		logger:          cfg.Logger,
		registry:        make(map[Event][]registration),
		armed:           make(map[Event]time.Time),
		cancels:         make(map[Event]context.CancelFunc),
	}
	if s.calendar == nil {
		s.calendar = Hebrew{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "scheduler")
	return s, nil
}

// Events returns the events known to the scheduler.
func (s *Scheduler) Events() []Event {
	events := make([]Event, 0, len(s.events))
	for ev := range s.events {
		events = append(events, ev)
	}
	slices.Sort(events)
	return events
}

// Start computes the first deadline of every event and arms it. Registration is
// closed from then on. A calendar conversion failure aborts Start without arming
// anything.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	now := s.clock.Now()
	targets := make(map[Event]time.Time, len(s.events))
	for ev, occ := range s.events {
		at, err := NextOccurrence(s.calendar, occ, s.loc, now)
		if err != nil {
			return fmt.Errorf("failed to compute next occurrence of %s: %w", ev, err)
		}
		targets[ev] = at
	}

	s.started = true
	for ev, at := range targets {
		evCtx, cancel := context.WithCancel(ctx)
		s.cancels[ev] = cancel
		s.armed[ev] = at
		s.wg.Add(1)
		go s.run(evCtx, ev, at)
	}
	return nil
}

// Cancel disarms a single event. It reports whether the event was armed.
func (s *Scheduler) Cancel(ev Event) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[ev]
	delete(s.cancels, ev)
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Stop disarms every event and waits for in-flight dispatches to return. A
// callback that ignores cancellation is waited for until its timeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for ev, cancel := range s.cancels {
		cancel()
		delete(s.cancels, ev)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Armed returns the instant ev is armed for.
func (s *Scheduler) Armed(ev Event) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.armed[ev]
	return at, ok
}

// Entry is an event and the instant it fires next.
type Entry struct {
	Event Event
	At    time.Time
}

// Upcoming lists every event with its next occurrence, soonest first. Armed
// deadlines are reported for a running scheduler; otherwise they are computed
// from the current time.
func (s *Scheduler) Upcoming() ([]Entry, error) {
	now := s.clock.Now()
	entries := make([]Entry, 0, len(s.events))
	for _, ev := range s.Events() {
		at, ok := s.Armed(ev)
		if !ok {
			var err error
			at, err = NextOccurrence(s.calendar, s.events[ev], s.loc, now)
			if err != nil {
				return nil, fmt.Errorf("failed to compute next occurrence of %s: %w", ev, err)
			}
		}
		entries = append(entries, Entry{Event: ev, At: at})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.At.Compare(b.At)
	})
	return entries, nil
}

// YearOfNext returns the calendar year of the first occurrence of ev at or after t.
func (s *Scheduler) YearOfNext(ev Event, t time.Time) (int, error) {
	occ, ok := s.events[ev]
	if !ok {
		return 0, &UnknownEventError{Event: ev}
	}
	at, err := NextOccurrence(s.calendar, occ, s.loc, t)
	if err != nil {
		return 0, err
	}
	return s.calendar.YearOf(at.In(s.loc)), nil
}

func (s *Scheduler) run(ctx context.Context, ev Event, at time.Time) {
	defer s.wg.Done()
	defer s.disarm(ev)

	for {
		s.logger.Info("event armed", "event", ev, "at", at)
		if !s.sleepUntil(ctx, at) {
			return
		}

		s.fire(ctx, ev, at)

		next, err := s.rearm(ev, at)
		if err != nil {
			s.logger.Error("failed to re-arm event", "event", ev, "error", err)
			return
		}
		at = next
	}
}

// sleepUntil blocks until the clock reaches at. It returns false if ctx ends first.
func (s *Scheduler) sleepUntil(ctx context.Context, at time.Time) bool {
	for {
		delay := at.Sub(s.clock.Now())
		if delay <= 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-s.clock.After(delay):
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, ev Event, at time.Time) {
	if s.ledger != nil {
		claimed, err := s.ledger.Claim(ctx, LedgerKey(ev, at))
		if err != nil {
			s.logger.Warn("failed to claim occurrence, dispatching anyway", "event", ev, "at", at, "error", err)
		} else if !claimed {
			s.logger.Info("occurrence already dispatched elsewhere", "event", ev, "at", at)
			return
		}
	}

	s.logger.Info("dispatching event", "event", ev, "at", at)
	start := s.clock.Now()
	if err := s.Dispatch(ctx, ev); err != nil {
		s.logger.Error("event dispatched with failures", "event", ev, "duration", s.clock.Now().Sub(start), "error", err)
		return
	}
	s.logger.Info("event dispatched", "event", ev, "duration", s.clock.Now().Sub(start))
}

// rearm computes the occurrence following the one that fired at.
func (s *Scheduler) rearm(ev Event, fired time.Time) (time.Time, error) {
	ref := s.clock.Now()
	if !ref.After(fired) {
		ref = fired.Add(time.Nanosecond)
	}
	next, err := NextOccurrence(s.calendar, s.events[ev], s.loc, ref)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	s.armed[ev] = next
	s.mu.Unlock()
	return next, nil
}

func (s *Scheduler) disarm(ev Event) {
	s.mu.Lock()
	delete(s.armed, ev)
	s.mu.Unlock()
}

// LedgerKey identifies one occurrence of an event.
func LedgerKey(ev Event, at time.Time) string {
	return string(ev) + ":" + strconv.FormatInt(at.Unix(), 10)
}
