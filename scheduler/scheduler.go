// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package scheduler drives the firing of the actors hosted by a runtime.
//
// Rounds are cooperative: every registered actor that is enabled, or that is
// exhausting its inputs, is fired until it stops making progress or reaches
// the configured number of firings per round. Between rounds the scheduler
// waits for a wakeup coming from a capability, a connection or a retry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gods "github.com/Workiva/go-datastructures/queue"
	goset "github.com/deckarep/golang-set/v2"
	"github.com/reugn/go-quartz/job"
	quartzlogger "github.com/reugn/go-quartz/logger"
	"github.com/reugn/go-quartz/quartz"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/goflow/actor"
	"github.com/tochemey/goflow/config"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/internal/metric"
	"github.com/tochemey/goflow/log"
)

const (
	// DefaultIdleTimeout is how long the run loop waits for a wakeup before
	// running a new round anyway
	DefaultIdleTimeout = 100 * time.Millisecond
	// DefaultStopTimeout bounds the wait for pending retries on Stop
	DefaultStopTimeout = 5 * time.Second

	authorizationJobKey = "authorization-check"
)

// Option is the interface that applies a scheduler option.
type Option interface {
	// Apply sets the Option value of a scheduler.
	Apply(s *Scheduler)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Scheduler)

func (f OptionFunc) Apply(s *Scheduler) {
	f(s)
}

// WithIdleTimeout sets how long the run loop waits for a wakeup
func WithIdleTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Scheduler) {
		s.idleTimeout = timeout
	})
}

// WithStopTimeout sets the maximum wait for pending retries on Stop
func WithStopTimeout(timeout time.Duration) Option {
	return OptionFunc(func(s *Scheduler) {
		s.stopTimeout = timeout
	})
}

// WithMetricProvider sets the metric provider used when metrics are enabled
func WithMetricProvider(provider *metric.Provider) Option {
	return OptionFunc(func(s *Scheduler) {
		s.metricProvider = provider
	})
}

// Scheduler fires the actors of a runtime. It implements actor.Waker.
type Scheduler struct {
	mu     sync.RWMutex
	config *config.Config
	logger log.Logger

	actors map[string]actor.Actor
	order  []string
	turn   int

	woken   *gods.Queue
	pending goset.Set[string]
	broken  goset.Set[string]

	quartzScheduler quartz.Scheduler
	started         *atomic.Bool
	rounds          *atomic.Uint64
	firings         *atomic.Uint64

	metricProvider *metric.Provider
	firingMetric   *metric.FiringMetric

	idleTimeout time.Duration
	stopTimeout time.Duration

	cancel context.CancelFunc
	eg     *errgroup.Group
}

// enforce compilation error
var _ actor.Waker = (*Scheduler)(nil)

// New creates a Scheduler. A nil config means the default configuration.
func New(cfg *config.Config, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	quartzScheduler, err := quartz.NewStdScheduler(quartz.WithLogger(quartzlogger.NewSimpleLogger(nil, quartzlogger.LevelOff)))
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		config:          cfg,
		logger:          cfg.Logger,
		actors:          make(map[string]actor.Actor),
		woken:           gods.New(64),
		pending:         goset.NewSet[string](),
		broken:          goset.NewSet[string](),
		quartzScheduler: quartzScheduler,
		started:         atomic.NewBool(false),
		rounds:          atomic.NewUint64(0),
		firings:         atomic.NewUint64(0),
		idleTimeout:     DefaultIdleTimeout,
		stopTimeout:     DefaultStopTimeout,
	}

	for _, opt := range opts {
		opt.Apply(s)
	}

	if cfg.MetricEnabled {
		if s.metricProvider == nil {
			s.metricProvider = metric.NewProvider(nil)
		}
		if err := s.registerMetrics(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Bind makes the scheduler the waker of the actors of the runtime
func (s *Scheduler) Bind(rt *actor.RuntimeContext) {
	rt.SetWaker(s)
}

// Register adds an actor to the scheduler
func (s *Scheduler) Register(a actor.Actor) error {
	id := a.ID()
	s.mu.Lock()
	if _, ok := s.actors[id]; ok {
		s.mu.Unlock()
		return fmt.Errorf("actor=(%s) %w", id, gerrors.ErrActorAlreadyRegistered)
	}
	s.actors[id] = a
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.logger.Debugf("actor=(%s) registered", id)
	s.Wakeup(id)
	return nil
}

// Unregister removes an actor from the scheduler and returns it
func (s *Scheduler) Unregister(id string) (actor.Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return nil, false
	}
	delete(s.actors, id)
	for i, other := range s.order {
		if other != id {
			continue
		}
		s.order = append(s.order[:i], s.order[i+1:]...)
		if i < s.turn {
			s.turn--
		}
		break
	}
	if len(s.order) == 0 {
		s.turn = 0
	} else {
		s.turn %= len(s.order)
	}
	s.broken.Remove(id)
	return a, true
}

// Lookup returns the registered actor with the given id
func (s *Scheduler) Lookup(id string) (actor.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[id]
	return a, ok
}

// Actors returns the registered actors in registration order
func (s *Scheduler) Actors() []actor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]actor.Actor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.actors[id])
	}
	return out
}

// Broken returns the sorted ids of the actors quarantined after a fatal error
func (s *Scheduler) Broken() []string {
	out := s.broken.ToSlice()
	sort.Strings(out)
	return out
}

// IsBroken reports whether the actor was quarantined after a fatal error
func (s *Scheduler) IsBroken(id string) bool {
	return s.broken.Contains(id)
}

// Revive puts a quarantined actor back into the rounds
func (s *Scheduler) Revive(id string) {
	if s.broken.Contains(id) {
		s.broken.Remove(id)
		s.Wakeup(id)
	}
}

// Firings returns the number of actions fired since the scheduler was created
func (s *Scheduler) Firings() uint64 {
	return s.firings.Load()
}

// Rounds returns the number of rounds run since the scheduler was created
func (s *Scheduler) Rounds() uint64 {
	return s.rounds.Load()
}

// Wakeup asks the scheduler to run a round for the actor
func (s *Scheduler) Wakeup(actorID string) {
	if s.pending.Add(actorID) {
		if err := s.woken.Put(actorID); err != nil {
			s.pending.Remove(actorID)
		}
	}
}

// ScheduleRetry runs fn once after delay. A pending retry with the same key
// is replaced.
func (s *Scheduler) ScheduleRetry(key string, delay time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return gerrors.ErrSchedulerNotStarted
	}

	jobKey := quartz.NewJobKey(key)
	_ = s.quartzScheduler.DeleteJob(jobKey)

	retry := job.NewFunctionJob[bool](
		func(context.Context) (bool, error) {
			fn()
			return true, nil
		},
	)
	return s.quartzScheduler.ScheduleJob(quartz.NewJobDetail(retry, jobKey), quartz.NewRunOnceTrigger(delay))
}

// RunOnce runs a single round and returns the number of actions fired and
// tokens batches moved. Zero means no actor made progress.
func (s *Scheduler) RunOnce() int {
	s.rounds.Inc()
	progress := 0
	for _, a := range s.candidates() {
		progress += s.fire(a)
	}
	return progress
}

// Run runs rounds until the context is done or the scheduler is stopped
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if s.RunOnce() > 0 {
			continue
		}

		items, err := s.woken.Poll(64, s.idleTimeout)
		switch {
		case errors.Is(err, gods.ErrDisposed):
			return nil
		case errors.Is(err, gods.ErrTimeout):
		case err != nil:
			return err
		}
		for _, item := range items {
			if id, ok := item.(string); ok {
				s.pending.Remove(id)
			}
		}
	}
}

// Start starts the retry scheduler, the periodic authorization check and
// the run loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started.Load() {
		s.mu.Unlock()
		return nil
	}

	s.logger.Info("starting actor scheduler...")
	s.quartzScheduler.Start(ctx)
	s.started.Store(s.quartzScheduler.IsStarted())

	if interval := s.config.AuthorizationCheckInterval; interval > 0 {
		check := job.NewFunctionJob[bool](
			func(context.Context) (bool, error) {
				s.checkAuthorization()
				return true, nil
			},
		)
		detail := quartz.NewJobDetail(check, quartz.NewJobKey(authorizationJobKey))
		if err := s.quartzScheduler.ScheduleJob(detail, quartz.NewSimpleTrigger(interval)); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	eg, runCtx := errgroup.WithContext(runCtx)
	s.cancel = cancel
	s.eg = eg
	s.mu.Unlock()

	eg.Go(func() error {
		return s.Run(runCtx)
	})
	s.logger.Info("actor scheduler started.:)")
	return nil
}

// Stop stops the run loop and drops the pending retries
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}

	s.logger.Info("stopping actor scheduler...")
	s.mu.Lock()
	cancel, eg := s.cancel, s.eg
	s.cancel, s.eg = nil, nil
	_ = s.quartzScheduler.Clear()
	s.quartzScheduler.Stop()
	s.started.Store(false)
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		// unblock the run loop
		_ = s.woken.Put("")
		err = eg.Wait()
	}

	ctx, cancelWait := context.WithTimeout(ctx, s.stopTimeout)
	defer cancelWait()
	s.quartzScheduler.Wait(ctx)

	s.logger.Info("actor scheduler stopped...:)")
	return err
}

// candidates returns the actors of the round, rotating the starting actor
// between rounds
func (s *Scheduler) candidates() []actor.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := len(s.order)
	out := make([]actor.Actor, 0, count)
	for i := 0; i < count; i++ {
		id := s.order[(s.turn+i)%count]
		if s.broken.Contains(id) {
			continue
		}
		out = append(out, s.actors[id])
	}
	if count > 0 {
		s.turn = (s.turn + 1) % count
	}
	return out
}

// fire fires one actor until it stops making progress
func (s *Scheduler) fire(a actor.Actor) int {
	progress := communicate(a)
	for i := 0; i < s.config.MaxFiringsPerRound; i++ {
		if !a.Enabled() && !a.IsExhausting() {
			break
		}

		start := time.Now()
		result, err := a.Fire()
		if err != nil {
			s.failed(a, err)
			break
		}
		s.observe(a, result, time.Since(start))

		progress += communicate(a)
		if !result.DidFire {
			break
		}
		progress++
		s.firings.Inc()
	}
	return progress
}

// failed quarantines an actor whose firing failed with a fatal error
func (s *Scheduler) failed(a actor.Actor, err error) {
	if errors.Is(err, gerrors.ErrActorNotEnabled) {
		// the actor was disabled by another goroutine since the status check
		s.logger.Debug(err)
		return
	}

	s.recordFailure(a)
	if !gerrors.IsFatal(err) {
		s.logger.Warnf("actor=(%s) firing failed: %v", a.ID(), err)
		return
	}
	s.broken.Add(a.ID())
	s.logger.Errorf("actor=(%s) is broken and will not be fired again: %v", a.ID(), err)
}

func (s *Scheduler) checkAuthorization() {
	for _, a := range s.Actors() {
		a.CheckAuthorization()
	}
}

func (s *Scheduler) observe(a actor.Actor, result actor.FireResult, elapsed time.Duration) {
	if s.firingMetric == nil {
		return
	}
	ctx := context.Background()
	attrs := otelmetric.WithAttributes(
		attribute.String("actor.id", a.ID()),
		attribute.String("actor.type", a.Type()),
	)
	if result.DidFire {
		s.firingMetric.FiringsCount().Add(ctx, 1, attrs)
		s.firingMetric.FiringDuration().Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}
	if !result.OutputOK {
		s.firingMetric.BlockedOutputCount().Add(ctx, 1, attrs)
	}
}

func (s *Scheduler) recordFailure(a actor.Actor) {
	if s.firingMetric == nil {
		return
	}
	s.firingMetric.FailuresCount().Add(context.Background(), 1, otelmetric.WithAttributes(
		attribute.String("actor.id", a.ID()),
		attribute.String("actor.type", a.Type()),
	))
}

func (s *Scheduler) registerMetrics() error {
	meter := s.metricProvider.Meter()
	if meter == nil {
		return nil
	}

	firingMetric, err := metric.NewFiringMetric(meter)
	if err != nil {
		return err
	}
	s.firingMetric = firingMetric

	runtimeMetric, err := metric.NewRuntimeMetric(meter)
	if err != nil {
		return err
	}

	observeOptions := []otelmetric.ObserveOption{
		otelmetric.WithAttributes(attribute.String("runtime.node", s.config.NodeID)),
	}
	_, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		s.mu.RLock()
		actors := len(s.actors)
		s.mu.RUnlock()
		observer.ObserveInt64(runtimeMetric.ActorsCount(), int64(actors), observeOptions...)
		observer.ObserveInt64(runtimeMetric.BrokenCount(), int64(s.broken.Cardinality()), observeOptions...)
		return nil
	}, runtimeMetric.ActorsCount(), runtimeMetric.BrokenCount())
	return err
}

// communicate pushes the pending tokens of every out port of the actor and
// returns the number of ports that moved tokens
func communicate(a actor.Actor) int {
	moved := 0
	for _, p := range a.OutPorts() {
		if p.Communicate() {
			moved++
		}
	}
	return moved
}
