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
	"strings"

	"cloud.google.com/go/bigquery"

	"go.chromium.org/luci/common/errors"
	"go.chromium.org/luci/common/logging"
)

// SetExt is the extension of transpiled schema files.
const SetExt = ".bq"

// EmptySchemaSetTag is set in errors returned when a directory holds no
// transpiled schemas, which always means an earlier stage went wrong.
var EmptySchemaSetTag = errors.BoolTag{
	Key: errors.NewTagKey("no transpiled schemas were found"),
}

// Set maps qualified schema names ({namespace}.{doctype}.{version}) to
// their BigQuery schemas.
type Set map[string]bigquery.Schema

// LoadSet reads every .bq file directly under dir. Subdirectories are
// not descended into. Loading an empty set is an error.
func LoadSet(ctx context.Context, dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Annotate(err, "reading schema set %q", dir).Err()
	}

	set := Set{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SetExt) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Annotate(err, "reading %q", e.Name()).Err()
		}
		schema, err := bigquery.SchemaFromJSON(raw)
		if err != nil {
			return nil, errors.Annotate(err, "parsing %q", e.Name()).Err()
		}
		set[strings.TrimSuffix(e.Name(), SetExt)] = schema
	}

	if len(set) == 0 {
		return nil, errors.Reason("no %s files in %q", SetExt, dir).Tag(EmptySchemaSetTag).Err()
	}
	logging.Infof(ctx, "loaded %d schemas from %s", len(set), dir)
	return set, nil
}
