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

package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIProvider serves the component schemas of an OpenAPI 3 document,
// so a schema named "Purchase" yields a document with "properties",
// "required" and so on.
type OpenAPIProvider struct {
	spec *openapi3.T
}

// Ensure the interface is implemented.
var _ Provider = &OpenAPIProvider{}

// NewOpenAPIProvider parses and validates an OpenAPI document.
func NewOpenAPIProvider(ctx context.Context, data []byte) (*OpenAPIProvider, error) {
	loader := openapi3.NewLoader()

	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}

	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating openapi document: %w", err)
	}

	return &OpenAPIProvider{
		spec: spec,
	}, nil
}

func (p *OpenAPIProvider) schema(name string) (*openapi3.Schema, error) {
	if p.spec.Components == nil {
		return nil, fmt.Errorf("%w: schema %s", ErrNotFound, name)
	}

	ref, ok := p.spec.Components.Schemas[name]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("%w: schema %s", ErrNotFound, name)
	}

	return ref.Value, nil
}

// Document returns the named component schema as a generic document.
func (p *OpenAPIProvider) Document(_ context.Context, name string) (Document, error) {
	schema, err := p.schema(name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encoding schema %s: %w", name, err)
	}

	var document Document

	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decoding schema %s: %w", name, err)
	}

	return document, nil
}

// Validate checks a JSON-compatible value against the named schema.
func (p *OpenAPIProvider) Validate(name string, value any) error {
	schema, err := p.schema(name)
	if err != nil {
		return err
	}

	// Normalize to what encoding/json produces, which is what the
	// validator expects.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value: %w", err)
	}

	var generic any

	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}

	if err := schema.VisitJSON(generic); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}
