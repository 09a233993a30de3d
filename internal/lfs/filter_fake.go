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

package lfs

import (
	"context"
	"io"
)

// FilterTest is an api.Filter with pluggable behavior, for callers that need
// the driver seam without spawning a real tool.
type FilterTest struct {
	CleanFunc  func(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error
	SmudgeFunc func(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error
}

func (f *FilterTest) Clean(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error {
	if f.CleanFunc != nil {
		return f.CleanFunc(ctx, path, repoRoot, input, output)
	}
	return nil
}

func (f *FilterTest) Smudge(ctx context.Context, path, repoRoot string, input io.Reader, output io.Writer) error {
	if f.SmudgeFunc != nil {
		return f.SmudgeFunc(ctx, path, repoRoot, input, output)
	}
	return nil
}
