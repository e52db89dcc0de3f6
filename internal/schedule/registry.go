package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Callback is invoked when the event it is registered for fires.
type Callback func(ctx context.Context) error

type registration struct {
	name     string
	band     int
	callback Callback
}

// ErrRegistryClosed is returned by Register once the Scheduler has started.
var ErrRegistryClosed = errors.New("registrations are closed once the scheduler has started")

// UnknownEventError is returned when an event outside the scheduler's set is used.
type UnknownEventError struct {
	Event Event
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event %q", string(e.Event))
}

var _ error = (*UnknownEventError)(nil)

// CallbackError describes a callback that failed while its event was dispatched.
type CallbackError struct {
	Event    Event
	Callback string
	Band     int
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("callback %s (band %d) for %s failed: %v", e.Callback, e.Band, e.Event, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

var _ error = (*CallbackError)(nil)

// Register adds cb to the callbacks of ev. Callbacks in a lower band run before
// those in a higher band; within a band they run in registration order.
// The name identifies the callback in logs and errors.
func (s *Scheduler) Register(ev Event, band int, name string, cb Callback) error {
	if _, ok := s.events[ev]; !ok {
		return &UnknownEventError{Event: ev}
	}
	if band < 0 {
		return fmt.Errorf("callback %s for %s: priority band must not be negative, got %d", name, ev, band)
	}
	if cb == nil {
		return fmt.Errorf("callback %s for %s is nil", name, ev)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrRegistryClosed
	}

	regs := append(s.registry[ev], registration{name: name, band: band, callback: cb})
	slices.SortStableFunc(regs, func(a, b registration) int {
		return a.band - b.band
	})
	s.registry[ev] = regs

	s.logger.Debug("callback registered", "event", ev, "callback", name, "band", band)
	return nil
}

// Dispatch runs every callback registered for ev, band by band. A failing callback
// is logged and does not prevent the remaining callbacks from running; all failures
// are returned joined together as *CallbackError values.
func (s *Scheduler) Dispatch(ctx context.Context, ev Event) error {
	if _, ok := s.events[ev]; !ok {
		return &UnknownEventError{Event: ev}
	}

	s.mu.RLock()
	regs := slices.Clone(s.registry[ev])
	s.mu.RUnlock()

	var errs []error
	for _, reg := range regs {
		if err := s.invoke(ctx, reg); err != nil {
			s.logger.Error(
				"scheduled callback failed",
				"event", ev,
				"callback", reg.name,
				"band", reg.band,
				"error", err,
			)
			errs = append(errs, &CallbackError{Event: ev, Callback: reg.name, Band: reg.band, Err: err})
		}
	}
	return errors.Join(errs...)
}

// invoke runs a single callback, bounded by the callback timeout. A callback that
// outlives its deadline is reported as failed and left to finish on its own. When
// ctx is cancelled instead, invoke waits for the callback to return, up to the same
// deadline.
func (s *Scheduler) invoke(ctx context.Context, reg registration) error {
	var (
		cbCtx  context.Context
		cancel context.CancelFunc
	)
	if s.callbackTimeout > 0 {
		cbCtx, cancel = context.WithTimeout(ctx, s.callbackTimeout)
	} else {
		cbCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("callback panicked: %v", r)
			}
		}()
		done <- reg.callback(cbCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-cbCtx.Done():
	}
	if ctx.Err() == nil {
		return fmt.Errorf("callback did not finish: %w", cbCtx.Err())
	}

	var expired <-chan time.Time
	if deadline, ok := cbCtx.Deadline(); ok {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case err := <-done:
		return err
	case <-expired:
		return fmt.Errorf("callback did not finish: %w", context.DeadlineExceeded)
	}
}
