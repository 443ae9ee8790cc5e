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

// Package transpile converts JSON schemas into BigQuery table schemas by
// driving the jsonschema-transpiler tool, and loads the resulting schema
// sets back for comparison.
package transpile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.chromium.org/luci/common/errors"
)

const (
	// DefaultBin is the transpiler executable looked up on PATH.
	DefaultBin = "jsonschema-transpiler"

	// sourceSuffix marks transpilable schema files.
	sourceSuffix = ".schema.json"

	// legacyNamespace is the namespace a schema file parses to when it
	// sits one directory level too shallow under a schema root named
	// "schemas". Such files are historical misplacements and are skipped.
	legacyNamespace = "schemas"
)

// Source identifies one JSON schema file inside the schema tree.
type Source struct {
	// Path is the file path as discovered.
	Path string
	// Namespace is the top-level schema grouping, e.g. "telemetry".
	Namespace string
	// Doctype is the document type inside the namespace, e.g. "main".
	Doctype string
	// Version is the integer schema version from the filename.
	Version int
}

// ParseSource interprets the trailing {namespace}/{doctype}/{filename}
// elements of a schema file path.
//
// The filename must end in .schema.json and carry the integer version as
// the third dot-separated segment from the end: main.4.schema.json
// parses to version 4, and a composite 1.2.3.schema.json to version 3.
func ParseSource(path string) (Source, error) {
	elems := strings.Split(filepath.ToSlash(path), "/")
	if len(elems) < 3 {
		return Source{}, errors.Reason("schema path %q has no namespace/doctype/filename structure", path).Err()
	}
	namespace, doctype, filename := elems[len(elems)-3], elems[len(elems)-2], elems[len(elems)-1]

	if !strings.HasSuffix(filename, sourceSuffix) {
		return Source{}, errors.Reason("schema file %q does not end in %s", filename, sourceSuffix).Err()
	}
	segs := strings.Split(filename, ".")
	if len(segs) < 3 {
		return Source{}, errors.Reason("schema file %q has no version segment", filename).Err()
	}
	version, err := strconv.Atoi(segs[len(segs)-3])
	if err != nil {
		return Source{}, errors.Reason("schema file %q has a malformed version segment %q", filename, segs[len(segs)-3]).Err()
	}

	return Source{Path: path, Namespace: namespace, Doctype: doctype, Version: version}, nil
}

// QualifiedName returns the {namespace}.{doctype}.{version} name the
// schema is published under.
func (s Source) QualifiedName() string {
	return fmt.Sprintf("%s.%s.%d", s.Namespace, s.Doctype, s.Version)
}

// Legacy reports whether the source sits at the wrong directory level
// and must be skipped.
func (s Source) Legacy() bool {
	return s.Namespace == legacyNamespace
}

// FindSources returns every .schema.json file under root, in lexical
// walk order. A missing root yields no sources rather than an error,
// leaving the empty set to be reported by the loader.
func FindSources(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var srcs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, sourceSuffix) {
			srcs = append(srcs, path)
		}
		return nil
	})
	return srcs, errors.Annotate(err, "scanning %q for schemas", root).Err()
}
