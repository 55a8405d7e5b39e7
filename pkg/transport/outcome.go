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

// Package transport carries the raw result of an HTTP exchange between the
// API client and the lifecycle machinery, which only ever cares about the
// status code and the body.
package transport

import (
	"net/http"

	"github.com/ftrabucco/restassured-template-sub000/pkg/util/fieldpath"
)

// Outcome is what the backend answered.
type Outcome struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Body is the raw response body, possibly empty.
	Body []byte
	// TraceID correlates the exchange with backend logs, if known.
	TraceID string
}

// Created returns true when the backend signalled 201 Created.
func (o *Outcome) Created() bool {
	return o != nil && o.StatusCode == http.StatusCreated
}

// Field extracts a scalar value from a JSON body by dotted path.  Undecodable
// bodies, missing fields and non-scalars all return false.
func (o *Outcome) Field(path string) (string, bool) {
	if o == nil || len(o.Body) == 0 {
		return "", false
	}

	doc, err := fieldpath.Decode(o.Body)
	if err != nil {
		return "", false
	}

	value, ok := fieldpath.Lookup(doc, path)
	if !ok {
		return "", false
	}

	return fieldpath.Scalar(value)
}

// DeletedOrGone is true for any status that means the resource no longer
// exists: removed now, or already missing.
func DeletedOrGone(statusCode int) bool {
	switch statusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return true
	}

	return false
}
