/*
Copyright 2024-2025 the Unikorn Authors.
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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ftrabucco/restassured-template-sub000/pkg/cleanup"
	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/tracking"
	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"
	"github.com/ftrabucco/restassured-template-sub000/test/api"
)

type recordingReporter struct {
	names []string
}

func (r *recordingReporter) Report(name, _ string) {
	r.names = append(r.names, name)
}

var _ = Describe("Error Handling and Edge Cases", func() {
	var tc *api.TestCase

	BeforeEach(func() {
		tc = api.NewTestCase(ctx, env)
	})

	Context("When cleanup encounters errors", func() {
		Describe("Given a backend that refuses deletions", func() {
			It("should count the failure without failing the spec", Serial, func() {
				requireFakeBackend()

				// Given: a resource whose deletion fails
				id := tc.Create(ctx, entity.RecurringExpense, api.NewRecurringExpensePayload())

				env.Backend.FailDeletes(entity.RecurringExpense, http.StatusInternalServerError)
				DeferCleanup(env.Backend.FailDeletes, entity.RecurringExpense, 0)

				tracker := tracking.New()
				tracker.Track(entity.RecurringExpense, id)

				reporter := &recordingReporter{}
				coordinator := cleanup.NewCoordinator(api.DefaultStrategies(tc.Client), cleanup.WithReporter(reporter))

				// When: cleanup runs
				report := coordinator.Run(ctx, tracker)

				// Then: the failure is reported and the tracker is still cleared
				Expect(report.Cleaned).To(BeZero())
				Expect(report.Failures).To(HaveLen(1))
				Expect(report.Failures[0].StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errors.Is(report.Err(), cleanup.ErrUnexpectedStatus)).To(BeTrue())
				Expect(reporter.names).To(ContainElement("Cleanup failure"))
				Expect(tracker.Len()).To(BeZero())

				Expect(env.Backend.Exists(entity.RecurringExpense, id)).To(BeTrue())
			})
		})

		Describe("Given an unreachable backend", func() {
			It("should record transport errors as failures", func() {
				unreachable := api.NewAPIClientWithConfig(config, "http://127.0.0.1:1")

				tracker := tracking.New()
				tracker.Track(entity.Purchase, "1")
				tracker.Track(entity.Card, "2")

				report := cleanup.NewCoordinator(api.DefaultStrategies(unreachable)).Run(ctx, tracker)

				Expect(report.Cleaned).To(BeZero())
				Expect(report.Failures).To(HaveLen(2))

				for _, failure := range report.Failures {
					Expect(failure.StatusCode).To(BeZero())
					Expect(failure.Err).To(HaveOccurred())
				}

				Expect(tracker.Len()).To(BeZero())
			})
		})

		Describe("Given a strategy that panics", func() {
			It("should carry on with the remaining resources", func() {
				id := tc.Create(ctx, entity.OneTimeExpense, api.NewOneTimeExpensePayload())

				strategies := api.DefaultStrategies(tc.Client)
				strategies[entity.Purchase] = func(_ context.Context, _ string) (*transport.Outcome, error) {
					panic("boom")
				}

				tracker := tracking.New()
				tracker.Track(entity.Purchase, "42")
				tracker.Track(entity.OneTimeExpense, id)

				report := cleanup.NewCoordinator(strategies).Run(ctx, tracker)

				Expect(report.Cleaned).To(Equal(1))
				Expect(report.Failures).To(HaveLen(1))
				Expect(errors.Is(report.Failures[0], cleanup.ErrStrategyPanicked)).To(BeTrue())

				api.ExpectGone(ctx, tc.Client, entity.OneTimeExpense, id)
			})
		})
	})

	Context("When testing edge case scenarios", func() {
		Describe("Given a backend that omits identifiers", func() {
			It("should find and track the resource by a distinguishing field", Serial, func() {
				requireFakeBackend()

				env.Backend.OmitIDs(entity.OneTimeExpense)
				DeferCleanup(env.Backend.RestoreIDs, entity.OneTimeExpense)

				payload := api.NewOneTimeExpensePayload()

				id := tc.CreateIdentifiedBy(ctx, entity.OneTimeExpense, payload, "description", payload.Description)

				Expect(id).NotTo(BeEmpty())
				Expect(tc.Tracker.List(entity.OneTimeExpense)).To(ConsistOf(id))
				Expect(env.Backend.Exists(entity.OneTimeExpense, id)).To(BeTrue())
			})
		})

		Describe("Given unusual timing conditions", func() {
			It("should answer 404 for operations on deleted resources", func() {
				id := tc.Create(ctx, entity.Card, api.NewCardPayload().Build())

				outcome, err := tc.Client.Delete(ctx, entity.Card, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(transport.DeletedOrGone(outcome.StatusCode)).To(BeTrue())

				outcome, err = tc.Client.Delete(ctx, entity.Card, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusNotFound))
				Expect(transport.DeletedOrGone(outcome.StatusCode)).To(BeTrue())

				api.ExpectGone(ctx, tc.Client, entity.Card, id)
			})

			It("should reject duplicate registrations", func() {
				identity, _ := tc.RegisterThrowawayUser(ctx)

				outcome, err := env.Client.Register(ctx, identity)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusConflict))
			})
		})

		Describe("Given wrong credentials", func() {
			It("should refuse the login", func() {
				identity, _ := tc.RegisterThrowawayUser(ctx)
				identity.Password += "-wrong"

				outcome, err := env.Client.Login(ctx, identity)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusUnauthorized))

				_, ok := outcome.Field(config.TokenField)
				Expect(ok).To(BeFalse())
			})
		})
	})
})
