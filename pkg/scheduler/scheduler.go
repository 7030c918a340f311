package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is invoked with the scheduled fire time, not the observed wall time.
type Task func(ctx context.Context, firedAt time.Time)

// EntryInfo describes a registered trigger.
type EntryInfo struct {
	Name string
	Spec string
	Next time.Time
}

type entry struct {
	name     string
	spec     string
	schedule cron.Schedule
	task     Task
	next     time.Time
	order    int
}

// Scheduler fires cron-style triggers against a Clock. Triggers run one at a
// time in fire-time order.
type Scheduler struct {
	clock  Clock
	loc    *time.Location
	logger *zap.Logger

	mu      sync.Mutex
	entries []*entry
	wake    chan struct{}
}

// New builds a scheduler evaluating specs in loc.
func New(clock Clock, loc *time.Location, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{clock: clock, loc: loc, logger: logger, wake: make(chan struct{}, 1)}
}

// Register adds a trigger using a standard five-field cron spec.
func (s *Scheduler) Register(name, spec string, task Task) error {
	if task == nil {
		return fmt.Errorf("scheduler: task %s is nil", name)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("scheduler: parse %s spec %q: %w", name, spec, err)
	}

	s.mu.Lock()
	e := &entry{
		name:     name,
		spec:     spec,
		schedule: schedule,
		task:     task,
		next:     schedule.Next(s.clock.Now().In(s.loc)),
		order:    len(s.entries),
	}
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	s.logger.Sugar().Infow("trigger registered", "trigger", name, "spec", spec, "next", e.next)
	return nil
}

// Entries lists registered triggers.
func (s *Scheduler) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EntryInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, EntryInfo{Name: e.name, Spec: e.spec, Next: e.next})
	}
	return out
}

// Next returns the earliest pending fire time.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	for _, e := range s.entries {
		if next.IsZero() || e.next.Before(next) {
			next = e.next
		}
	}
	return next, !next.IsZero()
}

// RunDue fires every trigger due at now and returns how many ran. A trigger
// that missed several periods fires once and is rescheduled after now.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	now = now.In(s.loc)

	s.mu.Lock()
	due := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.next.After(now) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].order < due[j].order
		}
		return due[i].next.Before(due[j].next)
	})
	fired := make([]time.Time, len(due))
	for i, e := range due {
		fired[i] = e.next
		e.next = e.schedule.Next(now)
	}
	s.mu.Unlock()

	for i, e := range due {
		s.fire(ctx, e, fired[i])
	}
	return len(due)
}

// Run blocks until ctx is cancelled, firing triggers as the clock reaches them.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		var timer Timer
		var fire <-chan time.Time
		if next, ok := s.Next(); ok {
			timer = s.clock.NewTimer(next.Sub(s.clock.Now()))
			fire = timer.C()
		}
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return ctx.Err()
		case <-s.wake:
			stopTimer(timer)
		case now := <-fire:
			s.RunDue(ctx, now)
		}
	}
}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}

func (s *Scheduler) fire(ctx context.Context, e *entry, firedAt time.Time) {
	start := s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Sugar().Errorw("trigger panicked", "trigger", e.name, "fired_at", firedAt, "panic", r)
		}
	}()
	s.logger.Sugar().Infow("trigger fired", "trigger", e.name, "fired_at", firedAt)
	e.task(ctx, firedAt)
	s.logger.Sugar().Infow("trigger finished", "trigger", e.name, "fired_at", firedAt, "duration", s.clock.Now().Sub(start))
}
