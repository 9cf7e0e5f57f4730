/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage implements the local project store.
// Projects are {id, name, data} rows in an embedded SQLite database (WAL mode) under the user
// data directory. Ids come from an AUTOINCREMENT key, so they grow monotonically and are never
// reused after a delete. The data column always holds a JSON array; rows written by older
// exports as a JSON string are normalized on read.
package storage
