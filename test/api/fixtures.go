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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ftrabucco/restassured-template-sub000/pkg/cleanup"
	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
	"github.com/ftrabucco/restassured-template-sub000/pkg/tracking"
	"github.com/ftrabucco/restassured-template-sub000/pkg/util/fieldpath"
)

var (
	// ErrNoMatch is raised when a search finds no resource.
	ErrNoMatch = errors.New("no matching resource")
)

// TestCase is the per-spec view of the environment: an authenticated client
// and a tracker that is emptied when the spec finishes.
type TestCase struct {
	Environment *Environment
	Client      *APIClient
	Tracker     *tracking.Tracker
}

// NewTestCase must be called from a setup or subject node.  Everything the
// spec creates through it is deleted, best effort, once the spec finishes
// whether it passes or fails.
func NewTestCase(ctx context.Context, env *Environment) *TestCase {
	rc, err := env.Requests.Authenticated(ctx)
	Expect(err).NotTo(HaveOccurred(), "the shared session could not be provisioned")

	client := env.Client.WithRequestContext(rc)

	coordinator := cleanup.NewCoordinator(DefaultStrategies(client), cleanup.WithReporter(GinkgoReporter{}))

	// Cleanup runs whether the test passes or fails so we don't need to clean up manually
	return &TestCase{
		Environment: env,
		Client:      client,
		Tracker:     coordinator.Attach(ctx, GinkgoT()),
	}
}

// Create creates a resource, expecting 201 Created, and tracks it.  The
// identifier is empty if the backend did not return one.
func (tc *TestCase) Create(ctx context.Context, kind entity.Type, payload any) string {
	outcome, err := tc.Client.Create(ctx, kind, payload)
	Expect(err).NotTo(HaveOccurred())
	Expect(outcome.StatusCode).To(Equal(http.StatusCreated), "creating %s: %s (trace ID: %s)", kind, string(outcome.Body), outcome.TraceID)

	id := tc.Tracker.TrackFromCreationOutcome(outcome, kind, tc.Environment.Config.IDField)

	GinkgoWriter.Printf("Created %s with ID: %s\n", kind, id)

	return id
}

// CreateIdentifiedBy is Create for backends that may omit the identifier
// from the creation response, it then searches for the resource by a
// distinguishing field and tracks what it finds.
func (tc *TestCase) CreateIdentifiedBy(ctx context.Context, kind entity.Type, payload any, field, value string) string {
	if id := tc.Create(ctx, kind, payload); id != "" {
		return id
	}

	GinkgoWriter.Printf("Creation response for %s carried no identifier, searching by %s=%s\n", kind, field, value)

	id, err := FindIDByField(ctx, tc.Client, kind, field, value, tc.Environment.Config.IDField)
	Expect(err).NotTo(HaveOccurred())

	tc.Tracker.Track(kind, id)

	return id
}

// RegisterThrowawayUser registers a unique user and tracks it for deletion.
func (tc *TestCase) RegisterThrowawayUser(ctx context.Context) (session.Identity, string) {
	identity := NewIdentity()

	outcome, err := tc.Environment.Client.Register(ctx, identity)
	Expect(err).NotTo(HaveOccurred())
	Expect(outcome.StatusCode).To(Equal(http.StatusCreated), "registering %s: %s", identity.Email, string(outcome.Body))

	id := tc.Tracker.TrackFromCreationOutcome(outcome, entity.User, tc.Environment.Config.IDField)
	Expect(id).NotTo(BeEmpty())

	return identity, id
}

// FindIDByField lists resources of a type and returns the identifier of the
// most recent one whose field equals value.
func FindIDByField(ctx context.Context, client *APIClient, kind entity.Type, field, value, idField string) (string, error) {
	resources, err := client.List(ctx, kind)
	if err != nil {
		return "", err
	}

	for i := len(resources) - 1; i >= 0; i-- {
		candidate, ok := fieldpath.Lookup(resources[i], field)
		if !ok {
			continue
		}

		if s, ok := fieldpath.Scalar(candidate); !ok || s != value {
			continue
		}

		id, ok := fieldpath.Lookup(resources[i], idField)
		if !ok {
			continue
		}

		if s, ok := fieldpath.Scalar(id); ok {
			return s, nil
		}
	}

	return "", fmt.Errorf("%w: %s with %s=%s", ErrNoMatch, kind, field, value)
}

// ExpectGone verifies a resource no longer exists.
func ExpectGone(ctx context.Context, client *APIClient, kind entity.Type, id string) {
	outcome, err := client.Get(ctx, kind, id)
	Expect(err).NotTo(HaveOccurred())
	Expect(outcome.StatusCode).To(Equal(http.StatusNotFound), "expected %s %s to be deleted", kind, id)
}

// ExpectPresent verifies a resource exists.
func ExpectPresent(ctx context.Context, client *APIClient, kind entity.Type, id string) {
	outcome, err := client.Get(ctx, kind, id)
	Expect(err).NotTo(HaveOccurred())
	Expect(outcome.StatusCode).To(Equal(http.StatusOK), "expected %s %s to exist: %s", kind, id, string(outcome.Body))
}
