/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import "sync"

// ProjectPane is the list of project names with one highlighted row.
type ProjectPane struct {
	mu       sync.Mutex
	names    []string
	selected int

	// OnSelect receives the clicked index.
	OnSelect func(index int)
	onChange func()
}

func newProjectPane(onChange func()) *ProjectPane {
	return &ProjectPane{selected: -1, onChange: onChange}
}

func (p *ProjectPane) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}

// SetNames replaces the rendered names. The highlight is kept when still in range.
func (p *ProjectPane) SetNames(names []string) {
	p.mu.Lock()
	p.names = append([]string(nil), names...)
	if p.selected >= len(p.names) {
		p.selected = -1
	}
	p.mu.Unlock()
	p.changed()
}

func (p *ProjectPane) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.names...)
}

// SetSelected moves the highlight without emitting a selection; -1 clears it.
func (p *ProjectPane) SetSelected(i int) {
	p.mu.Lock()
	if i < -1 || i >= len(p.names) {
		i = -1
	}
	p.selected = i
	p.mu.Unlock()
	p.changed()
}

func (p *ProjectPane) Selected() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Click highlights row i and emits OnSelect(i). Out-of-range clicks are ignored.
func (p *ProjectPane) Click(i int) {
	p.mu.Lock()
	if i < 0 || i >= len(p.names) {
		p.mu.Unlock()
		return
	}
	p.selected = i
	cb := p.OnSelect
	p.mu.Unlock()
	p.changed()
	if cb != nil {
		cb(i)
	}
}
