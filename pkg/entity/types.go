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

// Package entity defines the closed set of resource kinds the expense API
// exposes and that tests may create.
package entity

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownType is raised when a string does not name a known entity type.
	ErrUnknownType = errors.New("unknown entity type")
)

// Type names a kind of domain resource.
type Type string

const (
	Purchase         Type = "purchase"
	OneTimeExpense   Type = "one-time-expense"
	RecurringExpense Type = "recurring-expense"
	AutomaticDebit   Type = "automatic-debit"
	Card             Type = "card"
	User             Type = "user"
)

// all is ordered so that resources referencing others come first, purchases
// and debits hang off cards, and everything hangs off users.
//
//nolint:gochecknoglobals
var all = []Type{
	Purchase,
	OneTimeExpense,
	RecurringExpense,
	AutomaticDebit,
	Card,
	User,
}

// All returns every entity type in deletion-safe order.
func All() []Type {
	return slices.Clone(all)
}

// Valid returns true if the type is a member of the closed set.
func (t Type) Valid() bool {
	return slices.Contains(all, t)
}

func (t Type) String() string {
	return string(t)
}

// Plural is the collection name used in resource paths.
func (t Type) Plural() string {
	return string(t) + "s"
}

// Parse converts a string into a type, rejecting unknown values.
func Parse(s string) (Type, error) {
	t := Type(s)

	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}

	return t, nil
}

// Ref identifies a single tracked resource.
type Ref struct {
	Type Type
	ID   string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}
