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

// Package requestcontext builds per-request settings, base URL and headers,
// carrying whichever credential a test wants to present.
package requestcontext

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ftrabucco/restassured-template-sub000/pkg/session"
)

const (
	// MIMEApplicationJSON is the default content type and accept header.
	MIMEApplicationJSON = "application/json"
)

// TokenSource yields the shared session token, session.Cache satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// BaseConfig is common to every request.
type BaseConfig struct {
	// BaseURL is the scheme and host of the backend.
	BaseURL string
	// ContentType defaults to application/json.
	ContentType string
	// Accept defaults to application/json.
	Accept string
	// Header is copied onto every request.
	Header http.Header
}

// Context is everything needed to issue a request.  Each one is independent,
// modifying it never affects the factory or other contexts.
type Context struct {
	BaseURL string
	Header  http.Header
	Variant session.Variant
}

// Token returns the bearer token, if any.
func (c *Context) Token() string {
	token, _ := strings.CutPrefix(c.Header.Get("Authorization"), "Bearer ")

	return token
}

// Apply copies headers to a request, the request's own values win for
// anything the context does not set.
func (c *Context) Apply(r *http.Request) {
	for key, values := range c.Header {
		r.Header.Del(key)

		for _, value := range values {
			r.Header.Add(key, value)
		}
	}
}

// Factory derives contexts from a base configuration and a token source.
type Factory struct {
	base   BaseConfig
	tokens TokenSource
}

// NewFactory fills in defaults for unset content negotiation headers.
func NewFactory(base BaseConfig, tokens TokenSource) *Factory {
	if base.ContentType == "" {
		base.ContentType = MIMEApplicationJSON
	}

	if base.Accept == "" {
		base.Accept = MIMEApplicationJSON
	}

	base.BaseURL = strings.TrimSuffix(base.BaseURL, "/")
	base.Header = base.Header.Clone()

	return &Factory{
		base:   base,
		tokens: tokens,
	}
}

// BaseURL returns the backend address.
func (f *Factory) BaseURL() string {
	return f.base.BaseURL
}

func (f *Factory) context(variant session.Variant, token string) *Context {
	header := f.base.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	header.Set("Content-Type", f.base.ContentType)
	header.Set("Accept", f.base.Accept)

	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	return &Context{
		BaseURL: f.base.BaseURL,
		Header:  header,
		Variant: variant,
	}
}

// Authenticated carries the shared session token, provisioning it on first
// use.
func (f *Factory) Authenticated(ctx context.Context) (*Context, error) {
	token, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining session token: %w", err)
	}

	return f.context(session.Valid, token), nil
}

// Unauthenticated carries no Authorization header at all.
func (f *Factory) Unauthenticated() *Context {
	return f.context(session.Absent, "")
}

// WithVariant carries the requested credential.  Negative variants never
// consult the session cache.
func (f *Factory) WithVariant(ctx context.Context, variant session.Variant) (*Context, error) {
	switch variant {
	case session.Valid:
		return f.Authenticated(ctx)
	case session.Absent:
		return f.Unauthenticated(), nil
	case session.Invalid, session.Malformed, session.Expired:
	}

	token, ok := session.NegativeToken(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, variant)
	}

	return f.context(variant, token), nil
}
