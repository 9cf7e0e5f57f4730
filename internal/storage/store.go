/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"

	"transcribeer/internal/domain"
)

// ErrNotFound is returned by Get, Update and Delete for an unknown id.
var ErrNotFound = errors.New("project not found")

// Patch carries the fields of a partial update; nil fields are left untouched.
type Patch struct {
	Name *string
	Data *[]domain.Segment
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p.Name == nil && p.Data == nil }

// NamePatch and DataPatch build single-field patches.
func NamePatch(name string) Patch { return Patch{Name: &name} }

func DataPatch(data []domain.Segment) Patch {
	cp := domain.CloneSegments(data)
	if cp == nil {
		cp = []domain.Segment{}
	}
	return Patch{Data: &cp}
}

// Store is the persistent project table. List returns projects in insertion (id) order.
type Store interface {
	Create(ctx context.Context, name string, data []domain.Segment) (int64, error)
	List(ctx context.Context) ([]domain.Project, error)
	Get(ctx context.Context, id int64) (domain.Project, error)
	Update(ctx context.Context, id int64, p Patch) error
	Delete(ctx context.Context, id int64) error
	Close() error
}
