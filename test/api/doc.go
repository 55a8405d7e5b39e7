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

// Package api provides integration test utilities for the Expense API.
//
// # Separate Client Implementation
//
// This package maintains its own HTTP client (APIClient) rather than a
// generated one.  Any legitimate change to the API must have a compensating
// change here, which makes API evolution explicit and reviewable.  The client
// also carries features tailored for integration testing:
//   - W3C trace context propagation for request correlation
//   - Detailed error logging with trace IDs for debugging
//   - Per-request credentials via request contexts
//   - Direct access to HTTP status codes and response bodies
//
// # Resource Lifecycle
//
// Specs obtain a TestCase from NewTestCase.  Every resource created through it
// is tracked and deleted after the spec, best effort, via the cleanup
// coordinator.  The whole run shares one authentication session that is
// provisioned on first use, registering the test user if necessary.
//
// # Backends
//
// With API_BASE_URL unset the suites run against an in-process fake that
// implements the same contract, so they can run anywhere.
package api
