// SPDX-License-Identifier: MPL-2.0

// Package cueval provides shared CUE parsing utilities.
//
// Both the distribution recipe (distfile.cue) and the application config
// (config.cue) follow the same 3-step flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with the schema
//  3. Validate and decode to a Go struct
//
// ParseAndDecode consolidates that flow so the two callers stay consistent.
package cueval

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize is the upper bound on a parsed CUE file (1 MB).
// Recipe and config files are small; anything larger is almost certainly a
// mistake (or a hostile input) and is rejected before compilation.
const DefaultMaxFileSize = 1 << 20

type (
	// ParseResult contains the result of a successful parse.
	ParseResult[T any] struct {
		// Value is the decoded Go struct.
		Value *T

		// Unified is the unified CUE value, for callers that need to
		// extract extra metadata beyond the decoded struct.
		Unified cue.Value
	}

	// Option configures ParseAndDecode.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int
		concrete    bool
	}
)

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithConcrete requires all fields to be concrete after unification.
func WithConcrete() Option {
	return func(o *options) { o.concrete = true }
}

// ParseAndDecode compiles schema and data, unifies them, validates, and
// decodes into T. schemaPath names the root definition (e.g. "#Distfile").
func ParseAndDecode[T any](schema, data []byte, schemaPath string, opts ...Option) (*ParseResult[T], error) {
	o := options{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}

	filename := o.filename
	if filename == "" {
		filename = "<input>"
	}

	if len(data) > o.maxFileSize {
		return nil, fmt.Errorf("%s: file size %d exceeds maximum %d bytes", filename, len(data), o.maxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(schema)
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(filename))
	if userValue.Err() != nil {
		return nil, FormatError(userValue.Err(), filename)
	}

	schemaRoot := schemaValue.LookupPath(cue.ParsePath(schemaPath))
	if schemaRoot.Err() != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", schemaPath, schemaRoot.Err())
	}

	unified := schemaRoot.Unify(userValue)

	if o.concrete {
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, FormatError(err, filename)
		}
	} else {
		if err := unified.Validate(); err != nil {
			return nil, FormatError(err, filename)
		}
	}

	var result T
	if err := unified.Decode(&result); err != nil {
		return nil, FormatError(err, filename)
	}

	return &ParseResult[T]{Value: &result, Unified: unified}, nil
}

// FormatError rewrites a CUE error into "<file>: <path>: <message>" form so
// operators see where in the file the problem lives instead of a raw CUE
// error dump.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	// Report the first error; CUE tends to cascade, and the first one is
	// the one worth fixing.
	first := errs[0]
	path := first.Path()
	msg, args := first.Msg()

	if len(path) > 0 {
		return &ValidationError{
			FilePath: filename,
			CUEPath:  joinPath(path),
			Message:  fmt.Sprintf(msg, args...),
		}
	}
	return &ValidationError{
		FilePath: filename,
		Message:  fmt.Sprintf(msg, args...),
	}
}

// ValidationError is a CUE validation failure with file and path context.
type ValidationError struct {
	// FilePath is the file being validated.
	FilePath string

	// CUEPath is the dotted path to the invalid value (e.g. "product.dist_name").
	CUEPath string

	// Message is the validation error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.CUEPath != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.CUEPath, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
