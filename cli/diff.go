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
)

func cmdDiff() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: `diff [flags]`,
		ShortDesc: "transpiles the schema tree at two revisions",
		LongDesc: text.Doc(`
			Transpiles the JSON schema tree into BigQuery table schemas at a
			head and a base revision and replaces the output directory with
			the two resulting schema sets, one subdirectory per revision
			named by its short hash.

			The working tree must be clean. Staged changes are stashed for
			the duration of the run and re-applied afterwards, and the tree
			is checked back out to its original reference even when the run
			fails.
		`),
		CommandRun: func() subcommands.CommandRun {
			r := &diffRun{}
			r.registerBaseFlags()
			r.Flags.StringVar(&r.head, "head", "HEAD", "Revision with the schema changes under review.")
			r.Flags.StringVar(&r.base, "base", "master", "Revision to compare against.")
			r.Flags.StringVar(&r.outDir, "outdir", "integration",
				"Directory to replace with the transpiled sets, resolved against -C when relative.")
			return r
		},
	}
}

type diffRun struct {
	baseCommandRun
	head   string
	base   string
	outDir string
}

func (r *diffRun) validate() error {
	switch {
	case r.head == "":
		return errors.New("-head is required")
	case r.base == "":
		return errors.New("-base is required")
	case r.outDir == "":
		return errors.New("-outdir is required")
	default:
		return nil
	}
}

func (r *diffRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx, cancel := r.runContext(a, env)
	defer cancel()

	if len(args) != 0 {
		return r.done(ctx, errors.Reason("unexpected positional arguments: %q", args).Err())
	}
	if err := r.validate(); err != nil {
		return r.done(ctx, err)
	}
	if err := r.normalize(); err != nil {
		return r.done(ctx, err)
	}
	r.outDir = r.resolveAgainstRepo(r.outDir)

	return r.done(ctx, r.diff(ctx))
}

func (r *diffRun) diff(ctx context.Context) error {
	p := r.pipeline()

	version, err := p.Transpiler.Version(ctx)
	if err != nil {
		return err
	}
	logging.Debugf(ctx, "using %s", version)

	head, base, err := p.Diff(ctx, r.head, r.base, r.outDir)
	if err != nil {
		return err
	}
	logging.Infof(ctx, "wrote %d head and %d base schemas to %s", len(head), len(base), r.outDir)
	return nil
}
