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

package pipeline

import (
	"io/fs"
	"path/filepath"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/system/filesystem"
)

// replaceDir replaces dst with a copy of the src tree. dst is removed
// first, so on success it holds exactly src's contents.
func replaceDir(dst, src string) error {
	if err := filesystem.RemoveAll(dst); err != nil {
		return errors.Annotate(err, "clearing %q", dst).Err()
	}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return filesystem.MakeDirs(target)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return filesystem.Copy(target, path, info.Mode())
	})
	return errors.Annotate(err, "copying %q to %q", src, dst).Err()
}
