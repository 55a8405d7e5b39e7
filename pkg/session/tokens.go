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

package session

import (
	"slices"
	"strings"
)

const (
	// invalidToken has the right shape but was never issued by any backend.
	invalidToken = "invalid.token.signature"

	// malformedToken has no segments at all.
	malformedToken = "malformed-token-without-segments"

	// expiredToken is an HS256 token for expired@test.local that expired at
	// 2020-01-01T00:00:00Z.
	expiredToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJleHAiOjE1Nzc4MzY4MDAsImlhdCI6MTU3NzgzMzIwMCwic3ViIjoiZXhwaXJlZEB0ZXN0LmxvY2FsIn0." +
		"62Zg8VQmCnbHrdk_LK8ef2OPXViJtCBS3kvk5XUtTr4"
)

// Variant selects which credential a request carries.
type Variant int

const (
	// Valid is the shared session token.
	Valid Variant = iota
	// Invalid is well formed but unknown to the backend.
	Invalid
	// Malformed is not a token at all.
	Malformed
	// Expired was once valid.
	Expired
	// Absent means no credential is sent.
	Absent
)

func (v Variant) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	case Absent:
		return "absent"
	}

	return "unknown"
}

// ParseVariant is the inverse of String.
func ParseVariant(s string) (Variant, bool) {
	for _, v := range []Variant{Valid, Invalid, Malformed, Expired, Absent} {
		if v.String() == s {
			return v, true
		}
	}

	return Valid, false
}

// InvalidToken returns a token the backend never issued.
func InvalidToken() string {
	return invalidToken
}

// MalformedToken returns a value that is structurally not a token.
func MalformedToken() string {
	return malformedToken
}

// ExpiredToken returns a token whose expiry is in the past.
func ExpiredToken() string {
	return expiredToken
}

// NegativeToken returns the fixed token for a negative variant.  Valid and
// Absent have no fixed token.
func NegativeToken(v Variant) (string, bool) {
	switch v {
	case Invalid:
		return invalidToken, true
	case Malformed:
		return malformedToken, true
	case Expired:
		return expiredToken, true
	case Valid, Absent:
	}

	return "", false
}

// IsStructurallyValid checks shape only: exactly three non-empty dot
// separated segments.  Signatures and expiry are not checked.
func IsStructurallyValid(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}

	return !slices.Contains(parts, "")
}
