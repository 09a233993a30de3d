// Copyright 2025 The inedox-git authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"io"
)

type ID string

// FilterMode selects the direction of a filter invocation, matching the
// verbs Git passes to a filter driver.
type FilterMode string

const (
	// FilterClean transforms working-tree content before it is stored
	// (large file bytes -> pointer record).
	FilterClean FilterMode = "clean"
	// FilterSmudge is the inverse transform on checkout
	// (pointer record -> original bytes).
	FilterSmudge FilterMode = "smudge"
)

func (m FilterMode) Valid() bool {
	return m == FilterClean || m == FilterSmudge
}

// FilterSpec describes a single clean or smudge invocation. It is built per
// call and discarded when the invocation completes.
type FilterSpec struct {
	ID       ID
	Mode     FilterMode
	Path     string // path relative to the repository root, as Git reports it
	RepoRoot string // working directory for the tool
}

// ToolSpec describes the external LFS tool the driver shells out to.
type ToolSpec struct {
	Command    string   // executable name or absolute path
	ExtraArgs  []string // inserted before the mode verb
	Env        []string // extra KEY=VAL entries appended to the inherited env
	InstallURL string   // referenced in ToolNotInstalled messages
}

// Filter is the capability set of the LFS filter driver: one transform per
// direction, both streaming. Implementations must not retain the reader or
// writer after returning.
type Filter interface {
	Clean(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error
	Smudge(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error
}
