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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"cloud.google.com/go/bigquery"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"

	"github.com/mattwoodrow/mozilla-pipeline-schemas/internal/command"
)

// InvalidOutputDirTag is set in errors returned when the transpilation
// output directory does not exist or is not a directory.
var InvalidOutputDirTag = errors.BoolTag{
	Key: errors.NewTagKey("the output directory is unusable"),
}

// Transpiler drives the jsonschema-transpiler binary.
type Transpiler struct {
	// Runner runs the tool. Required.
	Runner command.Runner
	// Bin is the executable to run, DefaultBin when empty.
	Bin string
}

func (t *Transpiler) bin() string {
	if t.Bin != "" {
		return t.Bin
	}
	return DefaultBin
}

// Version returns the tool's version string, verifying on the way that
// the tool is installed at all. Runs call it once up front so a missing
// tool surfaces before any repository state changes.
func (t *Transpiler) Version(ctx context.Context) (string, error) {
	out, err := t.Runner.Run(ctx, t.bin(), "--version")
	return out, errors.Annotate(err, "probing %s", t.bin()).Err()
}

// Transpile converts one JSON schema file into a BigQuery schema.
func (t *Transpiler) Transpile(ctx context.Context, path string) (bigquery.Schema, error) {
	raw, err := t.transpileRaw(ctx, path)
	if err != nil {
		return nil, err
	}
	return t.parseSchema(path, raw)
}

// transpileRaw returns the tool's raw JSON output for one schema file.
//
// Incompatible types are unified with casts and field names are
// normalized to the casing the ingestion tables expect.
func (t *Transpiler) transpileRaw(ctx context.Context, path string) ([]byte, error) {
	out, err := t.Runner.Run(ctx, t.bin(), path, "--normalize-case", "--resolve", "cast", "--type", "bigquery")
	if err != nil {
		return nil, errors.Annotate(err, "transpiling %q", path).Err()
	}
	return []byte(out), nil
}

func (t *Transpiler) parseSchema(path string, raw []byte) (bigquery.Schema, error) {
	schema, err := bigquery.SchemaFromJSON(raw)
	return schema, errors.Annotate(err, "%s produced an invalid BigQuery schema for %q", t.bin(), path).Err()
}

// TranspileAll converts every listed schema file into outDir, writing
// one {namespace}.{doctype}.{version}.bq file per schema. outDir must
// already exist. Sources at the legacy directory level are skipped with
// a notice and produce no file.
func (t *Transpiler) TranspileAll(ctx context.Context, outDir string, paths []string) error {
	switch fi, err := os.Stat(outDir); {
	case os.IsNotExist(err):
		return errors.Reason("output directory %q does not exist", outDir).Tag(InvalidOutputDirTag).Err()
	case err != nil:
		return errors.Annotate(err, "output directory %q", outDir).Tag(InvalidOutputDirTag).Err()
	case !fi.IsDir():
		return errors.Reason("output path %q is not a directory", outDir).Tag(InvalidOutputDirTag).Err()
	}

	for _, path := range paths {
		src, err := ParseSource(path)
		if err != nil {
			return err
		}
		if src.Legacy() {
			logging.Infof(ctx, "skipping %s: wrong directory level", path)
			continue
		}
		raw, err := t.transpileRaw(ctx, path)
		if err != nil {
			return err
		}
		if _, err := t.parseSchema(path, raw); err != nil {
			return err
		}
		out := filepath.Join(outDir, src.QualifiedName()+SetExt)
		logging.Infof(ctx, "writing %s", out)
		if err := writeSchemaFile(out, raw); err != nil {
			return err
		}
	}
	return nil
}

// writeSchemaFile writes raw tool output re-indented with two spaces and
// a trailing newline. Field order stays the tool's, so identical inputs
// and tool versions produce byte-identical files.
func writeSchemaFile(path string, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return errors.Annotate(err, "formatting %q", path).Err()
	}
	buf.WriteString("\n")
	return errors.Annotate(os.WriteFile(path, buf.Bytes(), 0666), "writing %q", path).Err()
}
