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
	"net/http"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sync/errgroup"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"
	"github.com/ftrabucco/restassured-template-sub000/test/api"
)

const concurrency = 16

var _ = Describe("Concurrency and Performance", func() {
	Context("When performing concurrent operations", func() {
		Describe("Given many specs sharing one session", func() {
			It("should hand every caller the same token", func() {
				tokens := make([]string, concurrency)

				group, gctx := errgroup.WithContext(ctx)

				for i := range concurrency {
					group.Go(func() error {
						rc, err := env.Requests.Authenticated(gctx)
						if err != nil {
							return err
						}

						tokens[i] = rc.Token()

						return nil
					})
				}

				Expect(group.Wait()).To(Succeed())

				for _, token := range tokens {
					Expect(token).To(Equal(tokens[0]))
				}
			})

			It("should not log in again once the session exists", func() {
				requireFakeBackend()

				_, err := env.Session.Token(ctx)
				Expect(err).NotTo(HaveOccurred())

				before := env.Backend.Logins()

				group, gctx := errgroup.WithContext(ctx)

				for range concurrency {
					group.Go(func() error {
						_, err := env.Session.Token(gctx)
						return err
					})
				}

				Expect(group.Wait()).To(Succeed())
				Expect(env.Backend.Logins()).To(Equal(before))
			})

			It("should log in exactly once when a cleared session is refreshed concurrently", Serial, func() {
				requireFakeBackend()

				_, err := env.Session.Token(ctx)
				Expect(err).NotTo(HaveOccurred())

				before := env.Backend.Logins()

				env.Session.Clear()

				group, gctx := errgroup.WithContext(ctx)

				for range concurrency {
					group.Go(func() error {
						_, err := env.Session.Token(gctx)
						return err
					})
				}

				Expect(group.Wait()).To(Succeed())
				Expect(env.Backend.Logins()).To(Equal(before + 1))
			})
		})

		Describe("Given concurrent creation requests", func() {
			It("should create and clean up every resource", func() {
				tc := api.NewTestCase(ctx, env)

				var (
					lock     sync.Mutex
					outcomes []*transport.Outcome
				)

				group, gctx := errgroup.WithContext(ctx)

				for range concurrency {
					group.Go(func() error {
						outcome, err := tc.Client.Create(gctx, entity.OneTimeExpense, api.NewOneTimeExpensePayload())
						if err != nil {
							return err
						}

						lock.Lock()
						defer lock.Unlock()

						outcomes = append(outcomes, outcome)

						return nil
					})
				}

				Expect(group.Wait()).To(Succeed())

				// The tracker belongs to one goroutine, record results afterwards.
				for _, outcome := range outcomes {
					Expect(outcome.StatusCode).To(Equal(http.StatusCreated))
					Expect(tc.Tracker.TrackFromCreationOutcome(outcome, entity.OneTimeExpense, config.IDField)).NotTo(BeEmpty())
				}

				Expect(tc.Tracker.List(entity.OneTimeExpense)).To(HaveLen(concurrency))
			})
		})
	})
})
