// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates user-supplied configuration against an embedded
// CUE schema and decodes it into a Go struct. Errors are reported with the
// offending field's path so a bad config file points at the exact key.
package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// maxInputBytes caps config input size (1 MB). A config file approaching
// this limit is malformed or hostile, not a real configuration.
const maxInputBytes = 1 << 20

// Decode unifies data with the definition named by schemaPath inside the
// embedded schema, validates the result, and decodes it into T. filename is
// used only for error messages.
func Decode[T any](schema, data []byte, schemaPath, filename string) (*T, error) {
	if len(data) > maxInputBytes {
		return nil, fmt.Errorf("%s: input of %d bytes exceeds the %d byte limit", filename, len(data), maxInputBytes)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: embedded schema does not compile: %w", schemaValue.Err())
	}

	dataValue := ctx.CompileBytes(data, cue.Filename(filename))
	if dataValue.Err() != nil {
		return nil, formatError(dataValue.Err(), filename)
	}

	root := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if root.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, root.Err())
	}

	unified := root.Unify(dataValue)
	if err := unified.Validate(); err != nil {
		return nil, formatError(err, filename)
	}

	var out T
	if err := unified.Decode(&out); err != nil {
		return nil, formatError(err, filename)
	}
	return &out, nil
}

// formatError rewrites CUE errors as "<file>: <field.path>: <message>"
// lines so the user sees which key is wrong rather than a raw CUE trace.
func formatError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	var lines []string
	for _, e := range errs {
		p := fieldPath(cueerrors.Path(e))
		msg := e.Error()
		if p != "" && strings.HasPrefix(msg, p) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, p), ":"))
		}
		if p != "" {
			lines = append(lines, p+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// fieldPath converts CUE's flat path slice into dotted notation with
// bracketed list indices: ["probes", "0", "args"] -> "probes[0].args".
func fieldPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if isIndex(part) && i > 0 {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
