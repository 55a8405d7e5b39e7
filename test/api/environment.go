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

package api

import (
	"context"
	"fmt"
	"net/http/httptest"

	"github.com/ftrabucco/restassured-template-sub000/pkg/requestcontext"
	"github.com/ftrabucco/restassured-template-sub000/pkg/rules"
	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
	"github.com/ftrabucco/restassured-template-sub000/test/fake"
)

// Environment is built once per test run and shared by every spec.  The
// session cache inside it is the only shared mutable state.
type Environment struct {
	Config *TestConfig
	// Client carries no credentials, use a TestCase's client for those.
	Client   *APIClient
	Session  *session.Cache
	Requests *requestcontext.Factory
	Rules    rules.Provider
	// Backend is nil when running against a live service.
	Backend *fake.Backend

	server *httptest.Server
}

// NewEnvironment wires the harness, starting the fake backend if no live
// one is configured.  Nothing is requested from the backend yet.
func NewEnvironment(ctx context.Context, config *TestConfig) (*Environment, error) {
	e := &Environment{
		Config: config,
	}

	baseURL := config.BaseURL

	if config.UseFakeBackend() {
		backend, err := fake.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating fake backend: %w", err)
		}

		e.Backend = backend
		e.server = backend.Start()

		baseURL = e.server.URL
	}

	e.Client = NewAPIClientWithConfig(config, baseURL)
	e.Session = session.NewCache(e.Client, config.Identity(), session.WithTokenField(config.TokenField))
	e.Requests = requestcontext.NewFactory(requestcontext.BaseConfig{BaseURL: baseURL}, e.Session)

	if config.RulesPath != "" {
		e.Rules = rules.NewFileProvider(config.RulesPath)
	} else {
		provider, err := rules.NewOpenAPIProvider(ctx, fake.OpenAPISpec())
		if err != nil {
			e.Close()
			return nil, err
		}

		e.Rules = provider
	}

	return e, nil
}

// Close stops the fake backend, if any.
func (e *Environment) Close() {
	if e.server != nil {
		e.server.Close()
	}
}
