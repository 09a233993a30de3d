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

package errdefs

import "errors"

var (
	ErrToolNotInstalled = errors.New("lfs tool is not installed")
	ErrToolExecution    = errors.New("lfs tool execution failed")
	ErrIOFailure        = errors.New("stream copy failed")
	ErrContextDone      = errors.New("context has been cancelled")
	ErrInvalidMode      = errors.New("invalid filter mode")
	ErrInvalidSpec      = errors.New("invalid filter spec")
	ErrRepoRootNotFound = errors.New("could not locate repository root")
	ErrOpenProfileFile  = errors.New("failed to open tool profiles file")
	ErrInvalidProfile   = errors.New("invalid tool profile")
	ErrProfileNotFound  = errors.New("tool profile not found")
	ErrConfig           = errors.New("config error")
	ErrLoggerNotFound   = errors.New("logger not found in context")
	ErrInvalidArgument  = errors.New("invalid positional argument")
	ErrGitConfig        = errors.New("could not update git config")
)
