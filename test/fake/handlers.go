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

package fake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
)

type contextKey int

const (
	subjectKey contextKey = iota
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// decode reads a JSON object and checks it against the named schema.
func (b *Backend) decode(r *http.Request, schema string) (map[string]any, error) {
	var body map[string]any

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	if err := b.schemas.Validate(schema, body); err != nil {
		return nil, err
	}

	return body, nil
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	b.registrations.Add(1)

	body, err := b.decode(r, "Registration")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	//nolint:forcetypeassert // validated against the schema
	u := &user{
		name:     body["name"].(string),
		email:    strings.ToLower(body["email"].(string)),
		password: body["password"].(string),
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.users[u.email]; ok {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	u.id = b.allocateID()
	b.users[u.email] = u

	writeJSON(w, http.StatusCreated, u.view())
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	b.logins.Add(1)

	body, err := b.decode(r, "Credentials")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	//nolint:forcetypeassert // validated against the schema
	email, password := strings.ToLower(body["email"].(string)), body["password"].(string)

	b.lock.Lock()
	u, ok := b.users[email]
	b.lock.Unlock()

	if !ok || u.password != password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := b.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u.view(),
	})
}

func (b *Backend) issue(u *user) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Subject(u.email).
		IssuedAt(now).
		Expiration(now.Add(b.ttl)).
		Claim("uid", u.id).
		Build()
	if err != nil {
		return "", fmt.Errorf("building token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), b.key))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return string(signed), nil
}

// authenticate accepts only unexpired tokens signed by this backend for a
// user that still exists.
func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token, err := jwt.ParseString(raw, jwt.WithKey(jwa.HS256(), b.key))
		if err != nil {
			if errors.Is(err, jwt.TokenExpiredError()) {
				writeError(w, http.StatusUnauthorized, "token expired")
				return
			}

			writeError(w, http.StatusUnauthorized, "invalid token")

			return
		}

		subject, ok := token.Subject()
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		b.lock.Lock()
		_, ok = b.users[subject]
		b.lock.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "user no longer exists")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
	})
}

func (b *Backend) create(kind entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := b.decode(r, schemas[kind])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		b.lock.Lock()
		defer b.lock.Unlock()

		if cardID, ok := body["cardId"].(string); ok {
			if _, ok := b.collections[entity.Card].items[cardID]; !ok {
				writeError(w, http.StatusBadRequest, "card "+cardID+" does not exist")
				return
			}
		}

		record := maps.Clone(body)
		record["owner"] = r.Context().Value(subjectKey)

		var id string

		if kind == entity.Card {
			id = uuid.NewString()
			record["id"] = id
		} else {
			numeric := b.allocateID()
			id = strconv.Itoa(numeric)
			record["id"] = numeric
		}

		b.collections[kind].add(id, record)

		response := maps.Clone(record)

		if b.omitIDs.Has(kind) {
			delete(response, "id")
		}

		writeJSON(w, http.StatusCreated, response)
	}
}

func (b *Backend) list(kind entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()

		writeJSON(w, http.StatusOK, b.collections[kind].list())
	}
}

func (b *Backend) get(kind entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		b.lock.Lock()
		defer b.lock.Unlock()

		record, ok := b.collections[kind].items[id]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
			return
		}

		writeJSON(w, http.StatusOK, record)
	}
}

func (b *Backend) remove(kind entity.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		b.lock.Lock()
		defer b.lock.Unlock()

		b.deleteCounter[kind]++

		if status, ok := b.deleteStatus[kind]; ok {
			writeError(w, status, "deletion failed")
			return
		}

		if !b.collections[kind].remove(id) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", kind, id))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.lock.Lock()
	defer b.lock.Unlock()

	u := b.userByID(id)
	if u == nil {
		writeError(w, http.StatusNotFound, "user "+id+" not found")
		return
	}

	writeJSON(w, http.StatusOK, u.view())
}

func (b *Backend) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b.lock.Lock()
	defer b.lock.Unlock()

	b.deleteCounter[entity.User]++

	if status, ok := b.deleteStatus[entity.User]; ok {
		writeError(w, status, "deletion failed")
		return
	}

	u := b.userByID(id)
	if u == nil {
		writeError(w, http.StatusNotFound, "user "+id+" not found")
		return
	}

	delete(b.users, u.email)

	w.WriteHeader(http.StatusOK)
}
