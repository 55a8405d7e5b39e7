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

// Package fieldpath resolves dotted paths such as "data.items.0.id" against
// decoded JSON or YAML documents.
package fieldpath

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Lookup walks the document following path.  Map keys are matched exactly,
// numeric segments index into arrays.  An empty path returns the document.
func Lookup(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}

	current := doc

	for _, segment := range strings.Split(path, ".") {
		switch t := current.(type) {
		case map[string]any:
			value, ok := t[segment]
			if !ok {
				return nil, false
			}

			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(t) {
				return nil, false
			}

			current = t[index]
		default:
			return nil, false
		}
	}

	return current, true
}

// Scalar renders a leaf value as a string.  Numbers are rendered without
// exponent or trailing fraction, so identifiers like 42 come back as "42".
// Anything that is not a scalar, including JSON null, returns false.
func Scalar(value any) (string, bool) {
	switch t := value.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// Decode unmarshals a JSON body preserving number precision.
func Decode(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var doc any

	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}

	return doc, nil
}
