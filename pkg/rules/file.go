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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileProvider reads documents from a directory.  JSON is valid YAML so both
// formats are accepted.
type FileProvider struct {
	dir string
}

// Ensure the interface is implemented.
var _ Provider = &FileProvider{}

// NewFileProvider serves documents from dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{
		dir: dir,
	}
}

// Document reads <dir>/<name>.yaml, .yml or .json, first match wins.
func (p *FileProvider) Document(_ context.Context, name string) (Document, error) {
	for _, extension := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(p.dir, name+extension)

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("reading rules document %s: %w", path, err)
		}

		var document Document

		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("decoding rules document %s: %w", path, err)
		}

		if document == nil {
			document = Document{}
		}

		return document, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, p.dir)
}
