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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/requestcontext"
	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
	"github.com/ftrabucco/restassured-template-sub000/test/api"
)

var _ = Describe("Security and Authentication", func() {
	Context("When accessing API with different authentication states", func() {
		Describe("Given invalid authentication", func() {
			DescribeTable("should reject protected requests with 401 Unauthorized",
				func(variant session.Variant) {
					// Given: a request context carrying the credential variant
					rc, err := env.Requests.WithVariant(ctx, variant)
					Expect(err).NotTo(HaveOccurred())
					Expect(rc.Variant).To(Equal(variant))

					client := env.Client.WithRequestContext(rc)

					// When: a protected resource is listed
					resources, err := client.List(ctx, entity.Purchase)

					// Then: access is denied
					Expect(err).To(HaveOccurred())
					Expect(err.Error()).To(ContainSubstring("status: 401"))
					Expect(resources).To(BeEmpty())

					// And: creation is rejected too
					outcome, err := client.Create(ctx, entity.Purchase, api.NewPurchasePayload().Build())
					Expect(err).NotTo(HaveOccurred())
					Expect(outcome.StatusCode).To(Equal(http.StatusUnauthorized))
				},
				Entry("with a token that fails signature verification", session.Invalid),
				Entry("with a malformed token", session.Malformed),
				Entry("with an expired token", session.Expired),
				Entry("with no token at all", session.Absent),
			)

			It("should not send an Authorization header when unauthenticated", func() {
				rc := env.Requests.Unauthenticated()

				Expect(rc.Header.Get("Authorization")).To(BeEmpty())
				Expect(rc.Token()).To(BeEmpty())
				Expect(rc.Header.Get("Content-Type")).To(Equal("application/json"))
			})
		})

		Describe("Given valid authentication", func() {
			It("should accept requests with the session token", func() {
				rc, err := env.Requests.Authenticated(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(session.IsStructurallyValid(rc.Token())).To(BeTrue())

				_, err = env.Client.WithRequestContext(rc).List(ctx, entity.Purchase)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should keep the session usable after negative requests", func() {
				before, err := env.Session.Token(ctx)
				Expect(err).NotTo(HaveOccurred())

				for _, variant := range []session.Variant{session.Invalid, session.Malformed, session.Expired, session.Absent} {
					rc, err := env.Requests.WithVariant(ctx, variant)
					Expect(err).NotTo(HaveOccurred())

					_, _ = env.Client.WithRequestContext(rc).List(ctx, entity.Card)
				}

				after, err := env.Session.Token(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(after).To(Equal(before))
			})
		})

		Describe("Given a deleted user", func() {
			It("should reject the user's token", func() {
				requireFakeBackend()

				tc := api.NewTestCase(ctx, env)

				// Given: a throwaway user with its own token
				identity, id := tc.RegisterThrowawayUser(ctx)

				outcome, err := env.Client.Login(ctx, identity)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusOK))

				token, ok := outcome.Field(config.TokenField)
				Expect(ok).To(BeTrue())

				throwaway := session.NewCache(env.Client, identity, session.WithTokenField(config.TokenField))
				throwawayClient := env.Client.WithRequestContext(mustAuthenticate(throwaway))
				Expect(throwawayClient.List(ctx, entity.Card)).Error().NotTo(HaveOccurred())

				// When: the user is deleted
				outcome, err = tc.Client.Delete(ctx, entity.User, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusOK))

				// Then: both tokens are refused
				_, err = throwawayClient.List(ctx, entity.Card)
				Expect(err).To(HaveOccurred())

				stale, err := env.Requests.WithVariant(ctx, session.Absent)
				Expect(err).NotTo(HaveOccurred())
				stale.Header.Set("Authorization", "Bearer "+token)

				_, err = env.Client.WithRequestContext(stale).List(ctx, entity.Card)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Context("When submitting malicious input", func() {
		Describe("Given security testing", func() {
			It("should store injection payloads as inert text", func() {
				tc := api.NewTestCase(ctx, env)

				description := "'; DROP TABLE purchases; -- <script>alert(1)</script>"

				id := tc.Create(ctx, entity.Purchase, api.NewPurchasePayload().WithDescription(description).Build())

				outcome, err := tc.Client.Get(ctx, entity.Purchase, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome.StatusCode).To(Equal(http.StatusOK))

				stored, ok := outcome.Field("description")
				Expect(ok).To(BeTrue())
				Expect(stored).To(Equal(description))

				Expect(tc.Client.List(ctx, entity.Purchase)).NotTo(BeEmpty())
			})
		})
	})
})

// mustAuthenticate builds an authenticated request context from a session
// other than the shared one.
func mustAuthenticate(cache *session.Cache) *requestcontext.Context {
	rc, err := requestcontext.NewFactory(requestcontext.BaseConfig{BaseURL: env.Requests.BaseURL()}, cache).Authenticated(ctx)
	Expect(err).NotTo(HaveOccurred())

	return rc
}
