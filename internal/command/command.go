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

// Package command runs the external tools the schema pipeline drives,
// git and the schema transpiler, and captures their standard output.
package command

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
)

// FailedTag is set in errors returned when an external command could not
// be started or exited with a nonzero status.
var FailedTag = errors.BoolTag{
	Key: errors.NewTagKey("the external command failed"),
}

// Runner runs an external command and returns its standard output with
// surrounding whitespace trimmed.
//
// Standard error is not captured; implementations leave it attached to
// the process stderr so git and transpiler diagnostics stay visible.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Line splits cmdline on whitespace and runs it through r.
//
// None of the commands the pipeline issues carry arguments containing
// spaces, so no quoting is supported.
func Line(ctx context.Context, r Runner, cmdline string) (string, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return "", errors.Reason("empty command line").Err()
	}
	return r.Run(ctx, fields[0], fields[1:]...)
}

// System returns a Runner that runs commands with dir as their working
// directory.
func System(dir string) Runner {
	return &systemRunner{dir: dir}
}

// Swapped in tests.
var execCommandContext = exec.CommandContext

type systemRunner struct {
	dir string
}

func (s *systemRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	logging.Debugf(ctx, "running %s", render(name, args))

	cmd := execCommandContext(ctx, name, args...)
	cmd.Dir = s.dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()

	out := strings.TrimSpace(stdout.String())
	if err != nil {
		return out, errors.Annotate(err, "%q failed", render(name, args)).Tag(FailedTag).Err()
	}
	return out, nil
}

func render(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
