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

// Package rules serves the validation and schema documents that payload
// builders and boundary tests consult, e.g. the maximum length of a field.
package rules

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/ftrabucco/restassured-template-sub000/pkg/util/fieldpath"
)

var (
	// ErrNotFound is raised when a named document does not exist.
	ErrNotFound = errors.New("rules document not found")
)

// Document is an opaque, decoded rules document.
type Document map[string]any

// Provider resolves documents by name.
type Provider interface {
	Document(ctx context.Context, name string) (Document, error)
}

// Lookup resolves a dotted path.
func (d Document) Lookup(path string) (any, bool) {
	return fieldpath.Lookup(map[string]any(d), path)
}

// String resolves a dotted path to a scalar.
func (d Document) String(path string) (string, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return "", false
	}

	return fieldpath.Scalar(value)
}

// Int resolves a dotted path to an integer, fractional values are rejected.
func (d Document) Int(path string) (int, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}

	switch t := value.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true //nolint:gosec
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}

		return int(t), true
	case json.Number:
		i, err := strconv.Atoi(t.String())
		if err != nil {
			return 0, false
		}

		return i, true
	}

	return 0, false
}

// Strings resolves a dotted path to a list of scalars.
func (d Document) Strings(path string) ([]string, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return nil, false
	}

	list, ok := value.([]any)
	if !ok {
		return nil, false
	}

	result := make([]string, 0, len(list))

	for _, item := range list {
		s, ok := fieldpath.Scalar(item)
		if !ok {
			return nil, false
		}

		result = append(result, s)
	}

	return result, true
}
