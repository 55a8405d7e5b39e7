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

	"github.com/onsi/ginkgo/v2"

	"github.com/ftrabucco/restassured-template-sub000/pkg/cleanup"
	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"
	"github.com/ftrabucco/restassured-template-sub000/pkg/transport"
)

// DefaultStrategies deletes every entity type through its resource endpoint
// using the client's credentials.
func DefaultStrategies(client *APIClient) cleanup.Strategies {
	strategies := cleanup.Strategies{}

	for _, kind := range entity.All() {
		strategies[kind] = func(ctx context.Context, id string) (*transport.Outcome, error) {
			return client.Delete(ctx, kind, id)
		}
	}

	return strategies
}

// GinkgoReporter attaches cleanup results to the running spec's report.
type GinkgoReporter struct{}

// Ensure the interface is implemented.
var _ cleanup.Reporter = GinkgoReporter{}

func (GinkgoReporter) Report(name, content string) {
	ginkgo.AddReportEntry(name, content)
}
