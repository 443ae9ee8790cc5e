// Copyright 2026 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commandtest provides a scripted command.Runner for tests, so
// git and transpiler interactions can be exercised without either tool
// installed.
package commandtest

import (
	"context"
	"strings"

	"go.chromium.org/luci/common/errors"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/command"
)

// Response scripts the outcome of one expected command. Cmd is the full
// command line, space-joined.
type Response struct {
	Cmd string
	Out string
	Err error
}

// Runner replays a fixed script of responses, in order. A command that
// arrives out of order or past the end of the script fails, which makes
// tests assert the exact command sequence as a side effect.
//
// Every command seen is recorded in Calls, space-joined.
type Runner struct {
	Script []Response
	Calls  []string

	next int
}

var _ command.Runner = (*Runner)(nil)

func (r *Runner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.Calls = append(r.Calls, cmd)
	if r.next >= len(r.Script) {
		return "", errors.Reason("unexpected command %q: the script is exhausted", cmd).Err()
	}
	resp := r.Script[r.next]
	r.next++
	if resp.Cmd != cmd {
		return "", errors.Reason("unexpected command %q, want %q", cmd, resp.Cmd).Err()
	}
	return resp.Out, resp.Err
}

// Done reports whether the whole script was consumed.
func (r *Runner) Done() bool {
	return r.next == len(r.Script)
}

// Failure returns a Response scripting a command that exits nonzero, with
// the same error shape the real runner produces.
func Failure(cmd string) Response {
	return Response{
		Cmd: cmd,
		Err: errors.Reason("%q failed: exit status 1", cmd).Tag(command.FailedTag).Err(),
	}
}
