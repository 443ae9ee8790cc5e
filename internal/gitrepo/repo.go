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

// Package gitrepo manipulates the state of a local git checkout.
//
// Everything shells out to the git binary. The stash-list and rev-parse
// text formats it prints are part of this package's contract, so a
// reimplementation of git would not do.
package gitrepo

import (
	"context"
	"strings"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/command"
)

// DirtyTreeTag is set in errors returned when the working tree has
// uncommitted changes that switching revisions would clobber.
var DirtyTreeTag = errors.BoolTag{
	Key: errors.NewTagKey("the git working tree is dirty"),
}

// Repo is a local git checkout.
type Repo struct {
	// Dir is the path of the working tree root.
	Dir string
	// Runner runs git, with Dir as the working directory.
	Runner command.Runner
}

// New returns a Repo operating on the checkout rooted at dir.
func New(dir string) *Repo {
	return &Repo{Dir: dir, Runner: command.System(dir)}
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	return r.Runner.Run(ctx, "git", args...)
}

// ResolveRef resolves a symbolic reference to the short name git knows
// it by, e.g. HEAD to the current branch name. Resolving an already
// resolved name returns it unchanged.
func (r *Repo) ResolveRef(ctx context.Context, ref string) (string, error) {
	resolved, err := r.git(ctx, "rev-parse", "--abbrev-ref", ref)
	if err != nil {
		return "", errors.Annotate(err, "resolving %q", ref).Err()
	}
	if resolved != ref {
		logging.Infof(ctx, "resolved %s to %s", ref, resolved)
	}
	return resolved, nil
}

// RevParse returns the full commit hash ref points at.
func (r *Repo) RevParse(ctx context.Context, ref string) (string, error) {
	rev, err := r.git(ctx, "rev-parse", ref)
	return rev, errors.Annotate(err, "rev-parse %q", ref).Err()
}

// Checkout switches the working tree to ref.
func (r *Repo) Checkout(ctx context.Context, ref string) error {
	_, err := r.git(ctx, "checkout", ref)
	return errors.Annotate(err, "checking out %q", ref).Err()
}

// hasLocalChanges reports whether tracked files carry unstaged
// modifications. Staged and untracked changes are not considered.
func (r *Repo) hasLocalChanges(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "diff")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// stashSize returns the number of lines `git stash list` prints.
//
// This counts lines, not entries: the empty list and a single entry both
// count as one. Snapshot compares sizes before and after stashing, so a
// stash pushed onto a previously empty list goes undetected and its
// contents stay in the stash rather than coming back to the tree on
// restore.
func (r *Repo) stashSize(ctx context.Context) (int, error) {
	out, err := r.git(ctx, "stash", "list")
	if err != nil {
		return 0, err
	}
	return len(strings.Split(out, "\n")), nil
}
