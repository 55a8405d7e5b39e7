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

// Package fake is an in-memory expense API used when no live backend is
// configured.  It implements the same authentication and resource contract
// as the real service: JWT bearer tokens, 201 on create, 204 on delete and
// 404 for anything unknown.
package fake

import (
	"context"
	"crypto/rand"
	_ "embed"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/rules"

	"k8s.io/utils/set"
)

//go:embed openapi.yaml
var openAPISpec []byte

// OpenAPISpec returns the API description the backend validates against.
func OpenAPISpec() []byte {
	return slices.Clone(openAPISpec)
}

// schemas names the request body schema for each creatable type.
//
//nolint:gochecknoglobals
var schemas = map[entity.Type]string{
	entity.Purchase:         "Purchase",
	entity.OneTimeExpense:   "OneTimeExpense",
	entity.RecurringExpense: "RecurringExpense",
	entity.AutomaticDebit:   "AutomaticDebit",
	entity.Card:             "Card",
}

type user struct {
	id       int
	name     string
	email    string
	password string
}

func (u *user) view() map[string]any {
	return map[string]any{
		"id":    u.id,
		"name":  u.name,
		"email": u.email,
	}
}

// collection keeps records in creation order.
type collection struct {
	order []string
	items map[string]map[string]any
}

func newCollection() *collection {
	return &collection{
		items: map[string]map[string]any{},
	}
}

func (c *collection) add(id string, record map[string]any) {
	c.order = append(c.order, id)
	c.items[id] = record
}

func (c *collection) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}

	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })

	return true
}

func (c *collection) list() []map[string]any {
	result := make([]map[string]any, 0, len(c.order))

	for _, id := range c.order {
		result = append(result, c.items[id])
	}

	return result
}

// Backend is safe for concurrent use.
type Backend struct {
	key     []byte
	ttl     time.Duration
	schemas *rules.OpenAPIProvider

	lock          sync.Mutex
	nextID        int
	users         map[string]*user
	collections   map[entity.Type]*collection
	omitIDs       set.Set[entity.Type]
	deleteStatus  map[entity.Type]int
	deleteCounter map[entity.Type]int

	logins        atomic.Int64
	registrations atomic.Int64
}

// New creates an empty backend with a random signing key.
func New(ctx context.Context) (*Backend, error) {
	key := make([]byte, 32)

	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating signing key: %w", err)
	}

	provider, err := rules.NewOpenAPIProvider(ctx, openAPISpec)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		key:           key,
		ttl:           time.Hour,
		schemas:       provider,
		nextID:        1,
		users:         map[string]*user{},
		collections:   map[entity.Type]*collection{},
		omitIDs:       set.New[entity.Type](),
		deleteStatus:  map[entity.Type]int{},
		deleteCounter: map[entity.Type]int{},
	}

	for _, kind := range entity.All() {
		b.collections[kind] = newCollection()
	}

	return b, nil
}

// Handler returns the HTTP routes.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Post("/api/auth/register", b.register)
	r.Post("/api/auth/login", b.login)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		for kind := range schemas {
			r.Route("/api/"+kind.Plural(), func(r chi.Router) {
				r.Post("/", b.create(kind))
				r.Get("/", b.list(kind))
				r.Get("/{id}", b.get(kind))
				r.Delete("/{id}", b.remove(kind))
			})
		}

		r.Get("/api/users/{id}", b.getUser)
		r.Delete("/api/users/{id}", b.deleteUser)
	})

	return r
}

// Start serves the backend on a loopback port, callers must Close the server.
func (b *Backend) Start() *httptest.Server {
	return httptest.NewServer(b.Handler())
}

// Logins counts login requests, successful or not.
func (b *Backend) Logins() int64 {
	return b.logins.Load()
}

// Registrations counts registration requests, successful or not.
func (b *Backend) Registrations() int64 {
	return b.registrations.Load()
}

// Deletes counts deletion requests for a type, successful or not.
func (b *Backend) Deletes(kind entity.Type) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.deleteCounter[kind]
}

// Exists reports whether a resource is currently stored.
func (b *Backend) Exists(kind entity.Type, id string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	if kind == entity.User {
		return b.userByID(id) != nil
	}

	_, ok := b.collections[kind].items[id]

	return ok
}

// OmitIDs makes creation responses for a type leave out the identifier, as
// some backends do.
func (b *Backend) OmitIDs(kind entity.Type) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.omitIDs.Insert(kind)
}

// RestoreIDs undoes OmitIDs.
func (b *Backend) RestoreIDs(kind entity.Type) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.omitIDs.Delete(kind)
}

// FailDeletes makes deletions of a type answer with status and do nothing.
// A zero status restores normal behaviour.
func (b *Backend) FailDeletes(kind entity.Type, status int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if status == 0 {
		delete(b.deleteStatus, kind)
		return
	}

	b.deleteStatus[kind] = status
}

// allocateID must be called with the lock held.
func (b *Backend) allocateID() int {
	id := b.nextID
	b.nextID++

	return id
}

// userByID must be called with the lock held.
func (b *Backend) userByID(id string) *user {
	for _, u := range b.users {
		if fmt.Sprint(u.id) == id {
			return u
		}
	}

	return nil
}
