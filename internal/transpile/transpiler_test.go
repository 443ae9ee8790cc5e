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

package transpile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/bigquery"
	. "github.com/smartystreets/goconvey/convey"

	"go.chromium.org/luci/common/logging"
	"go.chromium.org/luci/common/logging/memlogger"
	. "go.chromium.org/luci/common/testing/assertions"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/command/commandtest"
)

// mainSchemaJSON is what the transpiler prints for a small schema,
// compact the way a tool would emit it.
const mainSchemaJSON = `[{"mode":"REQUIRED","name":"document_id","type":"STRING"},` +
	`{"fields":[{"mode":"NULLABLE","name":"app_build_id","type":"STRING"}],` +
	`"mode":"NULLABLE","name":"metadata","type":"RECORD"}]`

func transpileCmd(path string) string {
	return DefaultBin + " " + path + " --normalize-case --resolve cast --type bigquery"
}

func TestTranspiler(t *testing.T) {
	Convey(`Transpiler`, t, func() {
		ctx := memlogger.Use(context.Background())
		logs := logging.Get(ctx).(*memlogger.MemLogger)

		Convey(`Version probes the tool`, func() {
			tr := &Transpiler{Runner: &commandtest.Runner{Script: []commandtest.Response{
				{Cmd: DefaultBin + " --version", Out: "jsonschema-transpiler 1.9.0"},
			}}}
			version, err := tr.Version(ctx)
			So(err, ShouldBeNil)
			So(version, ShouldEqual, "jsonschema-transpiler 1.9.0")
		})

		Convey(`Version reports a missing tool`, func() {
			tr := &Transpiler{Runner: &commandtest.Runner{Script: []commandtest.Response{
				commandtest.Failure("jst --version"),
			}}, Bin: "jst"}
			_, err := tr.Version(ctx)
			So(err, ShouldErrLike, "probing jst")
		})

		Convey(`Transpile parses the tool output into a BigQuery schema`, func() {
			src := filepath.Join("telemetry", "main", "main.4.schema.json")
			tr := &Transpiler{Runner: &commandtest.Runner{Script: []commandtest.Response{
				{Cmd: transpileCmd(src), Out: mainSchemaJSON},
			}}}
			schema, err := tr.Transpile(ctx, src)
			So(err, ShouldBeNil)
			So(schema, ShouldHaveLength, 2)
			So(schema[0].Name, ShouldEqual, "document_id")
			So(schema[0].Type, ShouldEqual, bigquery.StringFieldType)
			So(schema[0].Required, ShouldBeTrue)
			So(schema[1].Type, ShouldEqual, bigquery.RecordFieldType)
			So(schema[1].Schema[0].Name, ShouldEqual, "app_build_id")
		})

		Convey(`Transpile rejects garbage tool output`, func() {
			src := filepath.Join("telemetry", "main", "main.4.schema.json")
			tr := &Transpiler{Runner: &commandtest.Runner{Script: []commandtest.Response{
				{Cmd: transpileCmd(src), Out: "error: unsupported keyword"},
			}}}
			_, err := tr.Transpile(ctx, src)
			So(err, ShouldErrLike, "invalid BigQuery schema")
		})

		Convey(`TranspileAll`, func() {
			outDir := t.TempDir()
			srcs := []string{
				filepath.Join("schemas", "glean", "baseline", "baseline.1.schema.json"),
				filepath.Join("schemas", "misplaced", "misplaced.1.schema.json"),
				filepath.Join("schemas", "telemetry", "main", "main.4.schema.json"),
			}

			Convey(`writes one formatted file per schema and skips legacy paths`, func() {
				runner := &commandtest.Runner{Script: []commandtest.Response{
					{Cmd: transpileCmd(srcs[0]), Out: `[{"mode":"NULLABLE","name":"ping","type":"STRING"}]`},
					{Cmd: transpileCmd(srcs[2]), Out: mainSchemaJSON},
				}}
				tr := &Transpiler{Runner: runner}
				So(tr.TranspileAll(ctx, outDir, srcs), ShouldBeNil)
				So(runner.Done(), ShouldBeTrue)

				entries, err := os.ReadDir(outDir)
				So(err, ShouldBeNil)
				names := make([]string, len(entries))
				for i, e := range entries {
					names[i] = e.Name()
				}
				So(names, ShouldResemble, []string{"glean.baseline.1.bq", "telemetry.main.4.bq"})
				So(logs, memlogger.ShouldHaveLog, logging.Info,
					"skipping "+srcs[1]+": wrong directory level")

				raw, err := os.ReadFile(filepath.Join(outDir, "glean.baseline.1.bq"))
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `[
  {
    "mode": "NULLABLE",
    "name": "ping",
    "type": "STRING"
  }
]
`)
			})

			Convey(`fails when the output directory is missing`, func() {
				tr := &Transpiler{Runner: &commandtest.Runner{}}
				err := tr.TranspileAll(ctx, filepath.Join(outDir, "nope"), srcs)
				So(err, ShouldErrLike, "does not exist")
				So(InvalidOutputDirTag.In(err), ShouldBeTrue)
			})

			Convey(`fails when the output path is a file`, func() {
				file := filepath.Join(outDir, "occupied")
				So(os.WriteFile(file, nil, 0666), ShouldBeNil)
				tr := &Transpiler{Runner: &commandtest.Runner{}}
				err := tr.TranspileAll(ctx, file, srcs)
				So(err, ShouldErrLike, "not a directory")
				So(InvalidOutputDirTag.In(err), ShouldBeTrue)
			})

			Convey(`stops at the first tool failure`, func() {
				runner := &commandtest.Runner{Script: []commandtest.Response{
					commandtest.Failure(transpileCmd(srcs[0])),
				}}
				tr := &Transpiler{Runner: runner}
				err := tr.TranspileAll(ctx, outDir, srcs)
				So(err, ShouldErrLike, "transpiling")

				entries, rerr := os.ReadDir(outDir)
				So(rerr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}
