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

package cleanup

import (
	"fmt"

	"github.com/ftrabucco/restassured-template-sub000/pkg/entity"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Failure records a resource that could not be confirmed deleted.
type Failure struct {
	Ref entity.Ref
	// StatusCode is zero when no response was received.
	StatusCode int
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Ref, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report summarizes a cleanup run.
type Report struct {
	// Cleaned counts resources confirmed gone.
	Cleaned int
	// Failures are resources that may still exist.
	Failures []Failure
	// Skipped are tracked types with no registered strategy.
	Skipped []entity.Type
}

// Summary is the one line result of the run.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d entities cleaned up", r.Cleaned)
}

// Err aggregates all failures, it is nil if there were none.  This is for
// diagnostics only, a cleanup run never fails a test.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))

	for i := range r.Failures {
		errs[i] = r.Failures[i]
	}

	return utilerrors.NewAggregate(errs)
}
