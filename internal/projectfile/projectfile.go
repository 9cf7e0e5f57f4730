/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package projectfile reads and writes the portable project file: a JSON array of
// {audio, label} segments, the same shape as the store's data column.
package projectfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"transcribeer/internal/domain"
)

// DefaultFileName is offered when saving a project file.
const DefaultFileName = "project.json"

// maxFileSize bounds what Parse will read; clips are inline base64 so files get large.
const maxFileSize = 512 << 20

// ErrInvalid marks a file that is not a project file. Reasons are wrapped.
var ErrInvalid = errors.New("not a valid project file")

//go:embed segments.schema.json
var schemaJSON []byte

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("projectfile: embedded schema: %v", err))
	}
	return s
}

// Parse reads a project file. The content must be a non-empty JSON array (or a JSON string
// holding one) of segment objects whose first element has both a label and audio.
func Parse(r io.Reader) ([]domain.Segment, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	if len(raw) > maxFileSize {
		return nil, fmt.Errorf("%w: file too large", ErrInvalid)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		raw = []byte(strings.TrimSpace(inner))
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: not JSON", ErrInvalid)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}
	var segs []domain.Segment
	if err := json.Unmarshal(raw, &segs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(segs) == 0 || segs[0].Label == "" || segs[0].Audio == "" {
		return nil, fmt.Errorf("%w: first segment needs label and audio", ErrInvalid)
	}
	return segs, nil
}

// Write emits segs as a compact JSON array.
func Write(w io.Writer, segs []domain.Segment) error {
	b, err := domain.EncodeSegments(segs)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
