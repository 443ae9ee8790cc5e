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

package gitrepo

import (
	"context"
	"path/filepath"

	"github.com/danjacques/gofslock/fslock"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
)

// lockName is the lock file created inside the git dir for the duration
// of a run.
const lockName = "bqdiff.lock"

// Snapshot captures the repository state a run must put back when it is
// done: the checked out reference and whether uncommitted changes were
// stashed away. It also holds an exclusive file lock so a concurrent run
// against the same repository fails fast instead of interleaving
// checkouts.
type Snapshot struct {
	repo     *Repo
	ref      string
	stashed  bool
	lock     fslock.Handle
	restored bool
}

// Snapshot records the current repository state, stashes any staged
// changes, and locks the repository against other runs.
//
// A working tree with unstaged changes fails with a DirtyTreeTag error
// before anything is stashed or checked out, so a dirty tree is left
// completely untouched.
func (r *Repo) Snapshot(ctx context.Context) (s *Snapshot, err error) {
	gitDir, err := r.git(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return nil, errors.Annotate(err, "locating the git dir").Err()
	}
	lock, err := fslock.Lock(filepath.Join(gitDir, lockName))
	if err != nil {
		return nil, errors.Annotate(err, "locking the repository").Err()
	}
	defer func() {
		if err != nil {
			if uerr := lock.Unlock(); uerr != nil {
				logging.Warningf(ctx, "failed to release the repository lock: %s", uerr)
			}
		}
	}()

	switch dirty, derr := r.hasLocalChanges(ctx); {
	case derr != nil:
		return nil, derr
	case dirty:
		return nil, errors.Reason("uncommitted changes in the working tree; commit or stash them first").Tag(DirtyTreeTag).Err()
	}

	ref, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, errors.Annotate(err, "recording the current ref").Err()
	}
	if ref == "HEAD" {
		// Detached head: --abbrev-ref has no name to print. Record the
		// commit hash so restoration still returns here.
		if ref, err = r.RevParse(ctx, "HEAD"); err != nil {
			return nil, err
		}
	}

	before, err := r.stashSize(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.git(ctx, "stash"); err != nil {
		return nil, errors.Annotate(err, "stashing local changes").Err()
	}
	after, err := r.stashSize(ctx)
	if err != nil {
		return nil, err
	}

	s = &Snapshot{repo: r, ref: ref, stashed: before != after, lock: lock}
	if s.stashed {
		logging.Warningf(ctx, "stashed uncommitted changes; if the run dies before restoring them, recover with `git stash apply`")
	}
	return s, nil
}

// Ref returns the reference the repository will be restored to.
func (s *Snapshot) Ref() string {
	return s.ref
}

// Restore puts the repository back the way Snapshot found it and
// releases the repository lock. It must be called exactly once.
func (s *Snapshot) Restore(ctx context.Context) error {
	if s.restored {
		return errors.Reason("the repository state was already restored").Err()
	}
	s.restored = true
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			logging.Warningf(ctx, "failed to release the repository lock: %s", err)
		}
	}()

	if err := s.repo.Checkout(ctx, s.ref); err != nil {
		return errors.Annotate(err, "restoring the original checkout").Err()
	}
	if s.stashed {
		if _, err := s.repo.git(ctx, "stash", "apply"); err != nil {
			return errors.Annotate(err, "re-applying stashed changes").Err()
		}
		logging.Infof(ctx, "re-applied stashed changes")
	}
	return nil
}
