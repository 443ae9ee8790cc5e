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

// Package pipeline orchestrates the two-revision schema transpilation
// that feeds BigQuery schema reviews: the JSON schema tree is transpiled
// at a head and a base revision and both resulting sets land in a single
// output directory for comparison.
//
// A run temporarily switches the repository's working tree between
// revisions. The tree is snapshotted first and restored when the run
// ends, success or not; only process death can leave it switched, and
// nothing guards against other processes mutating the checkout while a
// run is in flight.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/system/filesystem"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/gitrepo"
	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/transpile"
)

// shortRevLen is how much of a revision hash names its work directory,
// matching git's default short hash length.
const shortRevLen = 7

// Pipeline transpiles a repository's schema tree at two revisions.
type Pipeline struct {
	Repo       *gitrepo.Repo
	Transpiler *transpile.Transpiler
	// SchemaDir is the directory holding the JSON schema tree, usually
	// <repo>/schemas.
	SchemaDir string
}

// Diff transpiles the schema tree at headRef and at baseRef and replaces
// outDir with the result: one {short-hash} subdirectory of .bq files per
// revision. It returns the two loaded schema sets, head first.
//
// A previous output directory is replaced only when the whole run
// succeeded, so a failed run never clobbers earlier output.
func (p *Pipeline) Diff(ctx context.Context, headRef, baseRef, outDir string) (head, base transpile.Set, err error) {
	if headRef, err = p.Repo.ResolveRef(ctx, headRef); err != nil {
		return nil, nil, err
	}
	if baseRef, err = p.Repo.ResolveRef(ctx, baseRef); err != nil {
		return nil, nil, err
	}

	workRoot, err := os.MkdirTemp("", "schema-diff-")
	if err != nil {
		return nil, nil, errors.Annotate(err, "creating the work directory").Err()
	}
	defer func() {
		if rmErr := filesystem.RemoveAll(workRoot); rmErr != nil {
			logging.Warningf(ctx, "leaking work directory %s: %s", workRoot, rmErr)
		}
	}()

	headDir, baseDir, err := p.transpileRevisions(ctx, headRef, baseRef, workRoot)
	if err != nil {
		return nil, nil, err
	}

	if head, err = transpile.LoadSet(ctx, headDir); err != nil {
		return nil, nil, err
	}
	if base, err = transpile.LoadSet(ctx, baseDir); err != nil {
		return nil, nil, err
	}

	if err := replaceDir(outDir, workRoot); err != nil {
		return nil, nil, err
	}
	return head, base, nil
}

// transpileRevisions checks out and transpiles both revisions under
// workRoot while the repository state is guarded by a snapshot.
//
// The snapshot is restored before this returns. A restoration failure
// surfaces as the returned error only when the transpilation itself
// succeeded; otherwise it is logged and the primary error wins.
func (p *Pipeline) transpileRevisions(ctx context.Context, headRef, baseRef, workRoot string) (headDir, baseDir string, err error) {
	snap, err := p.Repo.Snapshot(ctx)
	if err != nil {
		return "", "", err
	}
	defer func() {
		switch rerr := snap.Restore(ctx); {
		case rerr == nil:
		case err == nil:
			err = rerr
		default:
			logging.Errorf(ctx, "failed to restore the repository state: %s", rerr)
		}
	}()

	if headDir, err = p.transpileRevision(ctx, snap, headRef, workRoot); err != nil {
		return "", "", err
	}
	if baseDir, err = p.transpileRevision(ctx, snap, baseRef, workRoot); err != nil {
		return "", "", err
	}
	return headDir, baseDir, nil
}

// transpileRevision transpiles the schema tree as of ref into a work
// directory named by the revision's short hash, and checks the snapshot
// reference back out before returning so the tree never stays parked on
// an intermediate revision.
func (p *Pipeline) transpileRevision(ctx context.Context, snap *gitrepo.Snapshot, ref, workRoot string) (dir string, err error) {
	rev, err := p.Repo.RevParse(ctx, ref)
	if err != nil {
		return "", err
	}
	logging.Infof(ctx, "transpiling schemas at %s (%s)", ref, rev)

	dir = filepath.Join(workRoot, rev[:shortRevLen])
	if err := os.Mkdir(dir, 0777); err != nil {
		if os.IsExist(err) {
			return "", errors.Reason("head and base resolve to the same revision %s", rev).Err()
		}
		return "", errors.Annotate(err, "creating %q", dir).Err()
	}

	defer func() {
		if cerr := p.Repo.Checkout(ctx, snap.Ref()); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				logging.Warningf(ctx, "failed to return to %s: %s", snap.Ref(), cerr)
			}
		}
	}()

	if err := p.Repo.Checkout(ctx, ref); err != nil {
		return "", err
	}
	srcs, err := transpile.FindSources(p.SchemaDir)
	if err != nil {
		return "", err
	}
	return dir, p.Transpiler.TranspileAll(ctx, dir, srcs)
}
