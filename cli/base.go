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

package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/clock"
	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/system/filesystem"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/gitrepo"
	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/pipeline"
	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/transpile"
)

type baseCommandRun struct {
	subcommands.CommandRunBase
	repoDir    string
	schemaDir  string
	transpiler string
	timeout    time.Duration
	verbose    bool
}

func (r *baseCommandRun) registerBaseFlags() {
	r.Flags.StringVar(&r.repoDir, "C", ".", "Path of the schema repository to operate on.")
	r.Flags.StringVar(&r.schemaDir, "schemas", "schemas",
		"Directory holding the JSON schema tree, resolved against -C when relative.")
	r.Flags.StringVar(&r.transpiler, "transpiler", transpile.DefaultBin,
		"The jsonschema-transpiler executable to run.")
	r.Flags.DurationVar(&r.timeout, "timeout", 0,
		"Bound the whole run by this duration; 0 means no bound.")
	r.Flags.BoolVar(&r.verbose, "verbose", false, "Enable debug logging.")
}

// runContext derives the command's context: debug logging per -verbose
// and the optional -timeout bound.
func (r *baseCommandRun) runContext(a subcommands.Application, env subcommands.Env) (context.Context, context.CancelFunc) {
	ctx := cli.GetContext(a, r, env)
	if r.verbose {
		ctx = logging.SetLevel(ctx, logging.Debug)
	}
	if r.timeout > 0 {
		return clock.WithTimeout(ctx, r.timeout)
	}
	return ctx, func() {}
}

// normalize validates the shared flags and resolves the repository and
// schema directories to absolute paths.
func (r *baseCommandRun) normalize() error {
	if r.repoDir == "" {
		return errors.Reason("-C requires a directory").Err()
	}
	if err := filesystem.AbsPath(&r.repoDir); err != nil {
		return err
	}
	r.schemaDir = r.resolveAgainstRepo(r.schemaDir)
	return nil
}

// resolveAgainstRepo anchors a relative path at the repository root
// rather than the process working directory.
func (r *baseCommandRun) resolveAgainstRepo(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.repoDir, path)
}

// pipeline assembles the run's components around a single command runner
// rooted at the repository.
func (r *baseCommandRun) pipeline() *pipeline.Pipeline {
	repo := gitrepo.New(r.repoDir)
	return &pipeline.Pipeline{
		Repo:       repo,
		Transpiler: &transpile.Transpiler{Runner: repo.Runner, Bin: r.transpiler},
		SchemaDir:  r.schemaDir,
	}
}

func (r *baseCommandRun) done(ctx context.Context, err error) int {
	if err != nil {
		logging.Errorf(ctx, "%s", err)
		return 1
	}
	return 0
}
