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

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/data/text"
	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/system/filesystem"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/command"
	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/transpile"
)

func cmdTranspile() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: `transpile -outdir dir [flags]`,
		ShortDesc: "transpiles the schema tree as currently checked out",
		LongDesc: text.Doc(`
			Transpiles the JSON schema tree into BigQuery table schemas as
			the working tree currently stands. No git state is read or
			touched; the output directory is created when missing and
			existing files in it are overwritten, not cleared.
		`),
		CommandRun: func() subcommands.CommandRun {
			r := &transpileRun{}
			r.registerBaseFlags()
			r.Flags.StringVar(&r.outDir, "outdir", "",
				"Directory to write the .bq files into, resolved against -C when relative.")
			return r
		},
	}
}

type transpileRun struct {
	baseCommandRun
	outDir string
}

func (r *transpileRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx, cancel := r.runContext(a, env)
	defer cancel()

	if len(args) != 0 {
		return r.done(ctx, errors.Reason("unexpected positional arguments: %q", args).Err())
	}
	if r.outDir == "" {
		return r.done(ctx, errors.New("-outdir is required"))
	}
	if err := r.normalize(); err != nil {
		return r.done(ctx, err)
	}
	r.outDir = r.resolveAgainstRepo(r.outDir)

	return r.done(ctx, r.transpile(ctx))
}

func (r *transpileRun) transpile(ctx context.Context) error {
	t := &transpile.Transpiler{Runner: command.System(r.repoDir), Bin: r.transpiler}

	version, err := t.Version(ctx)
	if err != nil {
		return err
	}
	logging.Debugf(ctx, "using %s", version)

	if err := filesystem.MakeDirs(r.outDir); err != nil {
		return errors.Annotate(err, "creating %q", r.outDir).Err()
	}
	srcs, err := transpile.FindSources(r.schemaDir)
	if err != nil {
		return err
	}
	return t.TranspileAll(ctx, r.outDir, srcs)
}
