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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ftrabucco/restassured-template-sub000/pkg/cleanup"
	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/tracking"
	"github.com/ftrabucco/restassured-template-sub000/test/api"
)

var _ = Describe("Resource Lifecycle", func() {
	var tc *api.TestCase

	BeforeEach(func() {
		tc = api.NewTestCase(ctx, env)
	})

	Context("When creating expense resources", func() {
		Describe("Given valid payloads", func() {
			It("should create and track a purchase", func() {
				id := tc.Create(ctx, entity.Purchase, api.NewPurchasePayload().WithAmount(42).Build())

				Expect(id).NotTo(BeEmpty())
				Expect(tc.Tracker.List(entity.Purchase)).To(Equal([]string{id}))
				api.ExpectPresent(ctx, tc.Client, entity.Purchase, id)
			})

			It("should create a credit card with an automatic debit and a card purchase", func() {
				cardID := tc.Create(ctx, entity.Card, api.NewCardPayload().AsCredit("Banco Nación", 20).Build())
				debitID := tc.Create(ctx, entity.AutomaticDebit, api.NewAutomaticDebitPayload(cardID))
				purchaseID := tc.Create(ctx, entity.Purchase, api.NewPurchasePayload().WithCard(cardID, 6).Build())

				Expect(tc.Tracker.List(entity.Card)).To(ConsistOf(cardID))
				Expect(tc.Tracker.List(entity.AutomaticDebit)).To(ConsistOf(debitID))
				Expect(tc.Tracker.List(entity.Purchase)).To(ConsistOf(purchaseID))
			})

			It("should create one time and recurring expenses", func() {
				tc.Create(ctx, entity.OneTimeExpense, api.NewOneTimeExpensePayload())
				tc.Create(ctx, entity.RecurringExpense, api.NewRecurringExpensePayload())

				Expect(tc.Tracker.Len()).To(Equal(2))
			})
		})

		Describe("Given a rejected payload", func() {
			It("should not track anything", func() {
				outcome, err := tc.Client.Create(ctx, entity.Card, api.NewCardPayload().WithName("").Build())
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusBadRequest))

				Expect(tc.Tracker.TrackFromCreationOutcome(outcome, entity.Card, config.IDField)).To(BeEmpty())
				Expect(tc.Tracker.Len()).To(BeZero())
			})
		})
	})

	Context("When a test case finishes", func() {
		Describe("Given tracked resources", func() {
			It("should delete every tracked resource and clear the tracker", func() {
				// Given: resources created by a test case with its own tracker
				tracker := tracking.New()
				coordinator := cleanup.NewCoordinator(api.DefaultStrategies(tc.Client))

				cardID := createTracked(tc, tracker, entity.Card, api.NewCardPayload().Build())
				debitID := createTracked(tc, tracker, entity.AutomaticDebit, api.NewAutomaticDebitPayload(cardID))
				purchaseID := createTracked(tc, tracker, entity.Purchase, api.NewPurchasePayload().Build())

				// When: cleanup runs
				report := coordinator.Run(ctx, tracker)

				// Then: everything is gone and the tracker is empty
				Expect(report.Cleaned).To(Equal(3))
				Expect(report.Summary()).To(Equal("3 entities cleaned up"))
				Expect(report.Err()).NotTo(HaveOccurred())
				Expect(tracker.Len()).To(BeZero())

				api.ExpectGone(ctx, tc.Client, entity.Purchase, purchaseID)
				api.ExpectGone(ctx, tc.Client, entity.AutomaticDebit, debitID)
				api.ExpectGone(ctx, tc.Client, entity.Card, cardID)
			})

			It("should treat resources deleted by the test itself as cleaned", func() {
				tracker := tracking.New()
				coordinator := cleanup.NewCoordinator(api.DefaultStrategies(tc.Client))

				id := createTracked(tc, tracker, entity.OneTimeExpense, api.NewOneTimeExpensePayload())

				outcome, err := tc.Client.Delete(ctx, entity.OneTimeExpense, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusNoContent))

				report := coordinator.Run(ctx, tracker)
				Expect(report.Cleaned).To(Equal(1))
				Expect(report.Failures).To(BeEmpty())
			})

			It("should skip types without a registered strategy", func() {
				tracker := tracking.New()
				coordinator := cleanup.NewCoordinator(cleanup.Strategies{})

				// Also tracked by the test case, so it is still removed afterwards.
				cardID := tc.Create(ctx, entity.Card, api.NewCardPayload().Build())
				debitID := tc.Create(ctx, entity.AutomaticDebit, api.NewAutomaticDebitPayload(cardID))
				tracker.Track(entity.AutomaticDebit, debitID)

				report := coordinator.Run(ctx, tracker)

				Expect(report.Skipped).To(ConsistOf(entity.AutomaticDebit))
				Expect(report.Cleaned).To(BeZero())
				Expect(tracker.Len()).To(BeZero())
				api.ExpectPresent(ctx, tc.Client, entity.AutomaticDebit, debitID)
			})
		})

		Describe("Given a test case that finished", Ordered, func() {
			var id string

			It("should track what it creates", func() {
				id = tc.Create(ctx, entity.Purchase, api.NewPurchasePayload().Build())
				Expect(tc.Tracker.Has(entity.Purchase, id)).To(BeTrue())
			})

			It("should have deleted it once the previous spec ended", func() {
				Expect(id).NotTo(BeEmpty())
				api.ExpectGone(ctx, tc.Client, entity.Purchase, id)
			})
		})

		Describe("Given a registered user", func() {
			It("should delete the user", func() {
				tracker := tracking.New()
				coordinator := cleanup.NewCoordinator(api.DefaultStrategies(tc.Client))

				identity, id := tc.RegisterThrowawayUser(ctx)
				tracker.Track(entity.User, id)

				report := coordinator.Run(ctx, tracker)
				Expect(report.Cleaned).To(Equal(1))

				api.ExpectGone(ctx, tc.Client, entity.User, id)

				outcome, err := env.Client.Login(ctx, identity)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	})
})

// createTracked creates a resource tracked only by the given tracker, for
// specs that drive cleanup themselves.
func createTracked(tc *api.TestCase, tracker *tracking.Tracker, kind entity.Type, payload any) string {
	outcome, err := tc.Client.Create(ctx, kind, payload)
	Expect(err).NotTo(HaveOccurred())
	Expect(outcome.StatusCode).To(Equal(http.StatusCreated), string(outcome.Body))

	id := tracker.TrackFromCreationOutcome(outcome, kind, config.IDField)
	Expect(id).NotTo(BeEmpty())

	return id
}
