/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Project is a named, persisted list of transcript segments.
// ID is assigned by the store on insert and never reassigned.
type Project struct {
	ID   int64     `json:"id"`
	Name string    `json:"name"`
	Data []Segment `json:"data"`
}

// Segment is one audio clip (base64) and its editable transcript text.
// Position within Project.Data is the segment's identity for a session.
type Segment struct {
	Audio string `json:"audio"`
	Label string `json:"label"`
}

// Default names for projects created by the two entry points.
const (
	NameTranscribed = "New Project"
	NameImported    = "Loaded Project"
)

// ErrNotSegments is returned when a payload is neither a segment array nor a string holding one.
var ErrNotSegments = errors.New("data is not a segment list")

// DecodeSegments accepts a JSON array of segments or a JSON string whose content is such an
// array (double-encoded exports) and returns the array form. JSON null yields a nil slice.
func DecodeSegments(raw []byte) ([]Segment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrNotSegments
	}
	switch raw[0] {
	case 'n':
		if string(raw) == "null" {
			return nil, nil
		}
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSegments, err)
		}
		inner = strings.TrimSpace(inner)
		if strings.HasPrefix(inner, `"`) {
			// one level of encoding is all that was ever written
			return nil, ErrNotSegments
		}
		return DecodeSegments([]byte(inner))
	case '[':
		segs := []Segment{}
		if err := json.Unmarshal(raw, &segs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSegments, err)
		}
		return segs, nil
	}
	return nil, ErrNotSegments
}

// EncodeSegments is the canonical stored form: a JSON array, never nil.
func EncodeSegments(segs []Segment) ([]byte, error) {
	if segs == nil {
		segs = []Segment{}
	}
	return json.Marshal(segs)
}

// UnmarshalJSON normalizes a string-encoded data field.
func (p *Project) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID   int64           `json:"id"`
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.ID, p.Name, p.Data = aux.ID, aux.Name, nil
	if len(aux.Data) == 0 {
		return nil
	}
	segs, err := DecodeSegments(aux.Data)
	if err != nil {
		return err
	}
	p.Data = segs
	return nil
}

// LowercaseLabels lower-cases every non-empty label in place.
func LowercaseLabels(segs []Segment) {
	for i := range segs {
		if segs[i].Label != "" {
			segs[i].Label = strings.ToLower(segs[i].Label)
		}
	}
}

// CloneSegments returns a copy that does not alias segs.
func CloneSegments(segs []Segment) []Segment {
	if segs == nil {
		return nil
	}
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out
}

// Labels returns the label of every segment in order.
func Labels(segs []Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Label
	}
	return out
}
