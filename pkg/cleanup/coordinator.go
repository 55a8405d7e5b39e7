/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cleanup deletes everything a test case tracked, on a best-effort
// basis, once the test case has finished.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/tracking"
	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"

	"k8s.io/utils/set"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrUnexpectedStatus is raised when a deletion returns a status that
	// does not mean the resource is gone.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNoOutcome is raised when a strategy returns neither a result nor an error.
	ErrNoOutcome = errors.New("strategy returned no outcome")

	// ErrStrategyPanicked is raised when a strategy panics.
	ErrStrategyPanicked = errors.New("strategy panicked")
)

// Strategy deletes a single resource by identifier.
type Strategy func(ctx context.Context, id string) (*transport.Outcome, error)

// Strategies maps each entity type to the way it is deleted.
type Strategies map[entity.Type]Strategy

// Reporter receives human readable cleanup results, e.g. a test report.
type Reporter interface {
	Report(name, content string)
}

// Option customizes a coordinator.
type Option func(*Coordinator)

// WithReporter forwards summaries and failures to the reporter.
func WithReporter(reporter Reporter) Option {
	return func(c *Coordinator) {
		c.reporter = reporter
	}
}

// Coordinator runs strategies over a tracker's contents.
type Coordinator struct {
	strategies Strategies
	reporter   Reporter
}

// NewCoordinator takes a private copy of the strategies, later changes to the
// caller's map have no effect.
func NewCoordinator(strategies Strategies, options ...Option) *Coordinator {
	c := &Coordinator{
		strategies: maps.Clone(strategies),
	}

	if c.strategies == nil {
		c.strategies = Strategies{}
	}

	for _, o := range options {
		o(c)
	}

	return c
}

// order returns the types to clean up.  Known types come first in their
// canonical order, anything else follows sorted by name.
func order(types set.Set[entity.Type]) []entity.Type {
	known := set.New(entity.All()...)

	var result []entity.Type

	for _, kind := range entity.All() {
		if types.Has(kind) {
			result = append(result, kind)
		}
	}

	return append(result, types.Difference(known).SortedList()...)
}

// Run deletes every tracked resource.  Each type's identifiers are deleted in
// the order they were tracked.  Failures are logged, counted and reported but
// never returned, and the tracker is always cleared.
func (c *Coordinator) Run(ctx context.Context, tracker *tracking.Tracker) *Report {
	log := log.FromContext(ctx)

	defer tracker.Clear()

	report := &Report{}

	tracked := tracker.Types()
	registered := set.KeySet(c.strategies)

	for _, kind := range tracked.Difference(registered).SortedList() {
		report.Skipped = append(report.Skipped, kind)

		log.V(1).Info("no cleanup strategy registered, skipping", "type", kind, "count", len(tracker.List(kind)))
	}

	for _, kind := range order(tracked.Intersection(registered)) {
		strategy := c.strategies[kind]

		for _, id := range tracker.List(kind) {
			ref := entity.Ref{Type: kind, ID: id}

			if failure := invoke(ctx, strategy, ref); failure != nil {
				report.Failures = append(report.Failures, *failure)

				log.Info("failed to clean up entity", "type", kind, "id", id, "status", failure.StatusCode, "error", failure.Err)

				continue
			}

			report.Cleaned++

			log.V(1).Info("cleaned up entity", "type", kind, "id", id)
		}
	}

	log.Info(report.Summary(), "failed", len(report.Failures), "skipped", len(report.Skipped))

	c.publish(ctx, report)

	return report
}

func (c *Coordinator) publish(ctx context.Context, report *Report) {
	if c.reporter == nil {
		return
	}

	c.report(ctx, "Cleanup", report.Summary())

	for _, failure := range report.Failures {
		c.report(ctx, "Cleanup failure", failure.Error())
	}
}

// report forwards a single entry, a reporter that panics loses the entry
// but cannot abort cleanup.
func (c *Coordinator) report(ctx context.Context, name, content string) {
	defer func() {
		if r := recover(); r != nil {
			log.FromContext(ctx).Info("failed to report cleanup result", "name", name, "error", r)
		}
	}()

	c.reporter.Report(name, content)
}

// invoke runs a single strategy, converting every way it can go wrong into
// a failure.
func invoke(ctx context.Context, strategy Strategy, ref entity.Ref) (failure *Failure) {
	defer func() {
		if r := recover(); r != nil {
			failure = &Failure{
				Ref: ref,
				Err: fmt.Errorf("%w: %v", ErrStrategyPanicked, r),
			}
		}
	}()

	outcome, err := strategy(ctx, ref.ID)
	if err != nil {
		return &Failure{
			Ref: ref,
			Err: err,
		}
	}

	if outcome == nil {
		return &Failure{
			Ref: ref,
			Err: ErrNoOutcome,
		}
	}

	if !transport.DeletedOrGone(outcome.StatusCode) {
		return &Failure{
			Ref:        ref,
			StatusCode: outcome.StatusCode,
			Err:        fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, outcome.StatusCode, string(outcome.Body)),
		}
	}

	return nil
}

// Cleaner registers a function to run when a test finishes, testing.TB
// satisfies it.
type Cleaner interface {
	Cleanup(f func())
}

// Attach returns a fresh tracker that is cleaned up when the test finishes,
// whether it passed, failed or panicked.  The context's cancellation is
// dropped as test contexts are cancelled before cleanup functions run.
func (c *Coordinator) Attach(ctx context.Context, t Cleaner) *tracking.Tracker {
	tracker := tracking.New()

	ctx = context.WithoutCancel(ctx)

	t.Cleanup(func() {
		c.Run(ctx, tracker)
	})

	return tracker
}
