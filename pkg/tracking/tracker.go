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

// Package tracking records the identifiers of resources a single test case
// created so they can be removed when it finishes.
package tracking

import (
	"slices"
	"strings"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"

	"k8s.io/utils/set"
)

// Tracker is owned by exactly one test case and is not safe for concurrent use.
type Tracker struct {
	// ids preserves creation order per type.
	ids map[entity.Type][]string
	// seen makes duplicate registrations a no-op.
	seen map[entity.Type]set.Set[string]
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		ids:  map[entity.Type][]string{},
		seen: map[entity.Type]set.Set[string]{},
	}
}

// normalize trims surrounding whitespace and rejects identifiers that cannot
// name a real resource.
func normalize(id string) (string, bool) {
	id = strings.TrimSpace(id)

	return id, id != "" && id != "null"
}

// Track registers an identifier for later cleanup.  Surrounding whitespace is
// dropped.  Blank or "null" identifiers and repeats are silently ignored.
func (t *Tracker) Track(kind entity.Type, id string) {
	id, ok := normalize(id)
	if !ok {
		return
	}

	seen, ok := t.seen[kind]
	if !ok {
		seen = set.New[string]()
		t.seen[kind] = seen
	}

	if seen.Has(id) {
		return
	}

	seen.Insert(id)

	t.ids[kind] = append(t.ids[kind], id)
}

// TrackFromCreationOutcome registers the identifier found at idPath in the
// body of a 201 Created response.  Anything else is ignored.  The tracked
// identifier is returned so callers whose backend omits it can fall back to
// searching by another field.
func (t *Tracker) TrackFromCreationOutcome(outcome *transport.Outcome, kind entity.Type, idPath string) string {
	if !outcome.Created() {
		return ""
	}

	raw, ok := outcome.Field(idPath)
	if !ok {
		return ""
	}

	id, ok := normalize(raw)
	if !ok {
		return ""
	}

	t.Track(kind, id)

	return id
}

// List returns a copy of the identifiers tracked for a type in creation order.
func (t *Tracker) List(kind entity.Type) []string {
	return slices.Clone(t.ids[kind])
}

// Has reports whether an identifier is tracked.
func (t *Tracker) Has(kind entity.Type, id string) bool {
	return t.seen[kind].Has(strings.TrimSpace(id))
}

// Types returns the set of types with at least one tracked identifier.
func (t *Tracker) Types() set.Set[entity.Type] {
	types := set.New[entity.Type]()

	for kind, ids := range t.ids {
		if len(ids) > 0 {
			types.Insert(kind)
		}
	}

	return types
}

// Len returns the total number of tracked identifiers.
func (t *Tracker) Len() int {
	var n int

	for _, ids := range t.ids {
		n += len(ids)
	}

	return n
}

// Clear forgets everything.  It is safe to call repeatedly.
func (t *Tracker) Clear() {
	clear(t.ids)
	clear(t.seen)
}
