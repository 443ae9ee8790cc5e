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
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFlags(t *testing.T) {
	t.Parallel()

	Convey(`diff flag defaults mirror the schema repository layout`, t, func() {
		r := cmdDiff().CommandRun().(*diffRun)
		So(r.repoDir, ShouldEqual, ".")
		So(r.schemaDir, ShouldEqual, "schemas")
		So(r.head, ShouldEqual, "HEAD")
		So(r.base, ShouldEqual, "master")
		So(r.outDir, ShouldEqual, "integration")
		So(r.transpiler, ShouldEqual, "jsonschema-transpiler")
		So(r.validate(), ShouldBeNil)
	})

	Convey(`transpile requires -outdir`, t, func() {
		r := cmdTranspile().CommandRun().(*transpileRun)
		So(r.outDir, ShouldEqual, "")
	})

	Convey(`normalize anchors relative directories at the repository`, t, func() {
		dir := t.TempDir()
		r := &diffRun{}
		r.registerBaseFlags()
		r.repoDir = dir

		So(r.normalize(), ShouldBeNil)
		So(r.schemaDir, ShouldEqual, filepath.Join(dir, "schemas"))
		So(r.resolveAgainstRepo("integration"), ShouldEqual, filepath.Join(dir, "integration"))
		So(r.resolveAgainstRepo(dir), ShouldEqual, dir)
	})
}

func TestApplication(t *testing.T) {
	t.Parallel()

	Convey(`the application wires both subcommands`, t, func() {
		a := application()
		names := make([]string, 0, len(a.Commands))
		for _, cmd := range a.Commands {
			names = append(names, cmd.Name())
		}
		So(names, ShouldContain, "diff")
		So(names, ShouldContain, "transpile")
	})
}
