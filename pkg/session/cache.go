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

// Package session provisions and caches the single authentication token
// shared by every test in a run, and supplies deliberately broken tokens for
// negative security tests.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

var (
	// ErrMissingToken is raised when a successful login carries no token.
	ErrMissingToken = errors.New("login response did not contain a token")

	// ErrNoResponse is raised when the authenticator returns neither a
	// response nor an error.
	ErrNoResponse = errors.New("no response")
)

// Identity is the fixed test user a session is issued for.
type Identity struct {
	Name     string
	Email    string
	Password string
}

// Step names the provisioning request that failed.
type Step string

const (
	StepLogin    Step = "login"
	StepRegister Step = "register"
)

// ProvisioningError is fatal to the test run, without a token nothing
// authenticated can be exercised.
type ProvisioningError struct {
	Step Step
	// StatusCode is zero if no response was received.
	StatusCode int
	// Body is the backend's raw response for diagnostics.
	Body string
	Err  error
}

func (e *ProvisioningError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("session provisioning failed at %s: %v", e.Step, e.Err)
	}

	if e.Err != nil {
		return fmt.Sprintf("session provisioning failed at %s: %v (status %d): %s", e.Step, e.Err, e.StatusCode, e.Body)
	}

	return fmt.Sprintf("session provisioning failed at %s: unexpected status %d: %s", e.Step, e.StatusCode, e.Body)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func newProvisioningError(step Step, outcome *transport.Outcome, err error) *ProvisioningError {
	e := &ProvisioningError{
		Step: step,
		Err:  err,
	}

	if outcome != nil {
		e.StatusCode = outcome.StatusCode
		e.Body = string(outcome.Body)
	}

	return e
}

// Option customizes a cache.
type Option func(*Cache)

// WithTokenField sets the dotted path of the token in the login response,
// it defaults to "token".
func WithTokenField(path string) Option {
	return func(c *Cache) {
		c.tokenField = path
	}
}

// Cache holds one token for one identity.  It is safe for concurrent use.
// Reads of a cached token are lock free, concurrent callers that find the
// cache empty share a single provisioning round trip.
type Cache struct {
	authenticator Authenticator
	identity      Identity
	tokenField    string

	token atomic.Pointer[string]
	group singleflight.Group
}

// NewCache returns an empty cache, nothing is requested until the first
// call to Token.
func NewCache(authenticator Authenticator, identity Identity, options ...Option) *Cache {
	c := &Cache{
		authenticator: authenticator,
		identity:      identity,
		tokenField:    "token",
	}

	for _, o := range options {
		o(c)
	}

	return c
}

// Identity returns the user the cache authenticates as.
func (c *Cache) Identity() Identity {
	return c.identity
}

func (c *Cache) cached() (string, bool) {
	token := c.token.Load()
	if token == nil || !IsStructurallyValid(*token) {
		return "", false
	}

	return *token, true
}

// Token returns the cached token, provisioning one first if the cache is
// empty or holds something that is not shaped like a token.
func (c *Cache) Token(ctx context.Context) (string, error) {
	if token, ok := c.cached(); ok {
		return token, nil
	}

	result, err, _ := c.group.Do("token", func() (any, error) {
		// Another flight may have completed between the fast path and here.
		if token, ok := c.cached(); ok {
			return token, nil
		}

		token, err := c.provision(ctx)
		if err != nil {
			return "", err
		}

		c.token.Store(&token)

		return token, nil
	})
	if err != nil {
		return "", err
	}

	//nolint:forcetypeassert
	return result.(string), nil
}

// Clear drops the cached token so the next call to Token provisions a new
// one.  Callers reading concurrently may observe either token.
func (c *Cache) Clear() {
	c.token.Store(nil)
}

// provision logs in, registering the identity first if the backend does not
// know it.
func (c *Cache) provision(ctx context.Context) (string, error) {
	log := log.FromContext(ctx)

	outcome, err := c.login(ctx)
	if err != nil {
		return "", err
	}

	if outcome.StatusCode == http.StatusUnauthorized {
		log.Info("test user not registered, registering", "email", c.identity.Email)

		if err := c.register(ctx); err != nil {
			return "", err
		}

		if outcome, err = c.login(ctx); err != nil {
			return "", err
		}
	}

	if outcome.StatusCode != http.StatusOK {
		return "", newProvisioningError(StepLogin, outcome, nil)
	}

	token, ok := outcome.Field(c.tokenField)
	if !ok || token == "" {
		return "", newProvisioningError(StepLogin, outcome, ErrMissingToken)
	}

	log.Info("session provisioned", "email", c.identity.Email)

	return token, nil
}

func (c *Cache) login(ctx context.Context) (*transport.Outcome, error) {
	outcome, err := c.authenticator.Login(ctx, c.identity)
	if err != nil {
		return nil, newProvisioningError(StepLogin, nil, err)
	}

	if outcome == nil {
		return nil, newProvisioningError(StepLogin, nil, ErrNoResponse)
	}

	return outcome, nil
}

func (c *Cache) register(ctx context.Context) error {
	outcome, err := c.authenticator.Register(ctx, c.identity)
	if err != nil {
		return newProvisioningError(StepRegister, nil, err)
	}

	if outcome == nil {
		return newProvisioningError(StepRegister, nil, ErrNoResponse)
	}

	if outcome.StatusCode != http.StatusCreated {
		return newProvisioningError(StepRegister, outcome, nil)
	}

	return nil
}
