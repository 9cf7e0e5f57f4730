/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"transcribeer/internal/domain"
)

type projectItem struct {
	project domain.Project
}

func (i projectItem) FilterValue() string { return i.project.Name }
func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string {
	return fmt.Sprintf("#%d · %d segments", i.project.ID, len(i.project.Data))
}

func projectItems(ps []domain.Project) []list.Item {
	items := make([]list.Item, len(ps))
	for i, p := range ps {
		items[i] = projectItem{project: p}
	}
	return items
}
