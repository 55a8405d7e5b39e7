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

package api

import (
	"fmt"
	"net/url"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
)

// Endpoints contains all API endpoint patterns.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Health endpoint.
func (e *Endpoints) Health() string {
	return "/api/health"
}

// Authentication endpoints.
func (e *Endpoints) Login() string {
	return "/api/auth/login"
}

func (e *Endpoints) Register() string {
	return "/api/auth/register"
}

// Resource endpoints.
func (e *Endpoints) Collection(kind entity.Type) string {
	return fmt.Sprintf("/api/%s", kind.Plural())
}

func (e *Endpoints) Resource(kind entity.Type, id string) string {
	return fmt.Sprintf("/api/%s/%s",
		kind.Plural(), url.PathEscape(id))
}
