// SPDX-License-Identifier: MPL-2.0

// Package issue carries user-facing error context through the engine.
// Components return an ActionableError describing what operation failed,
// which resource was involved, and what the user can do about it; the CLI
// layer renders it on the diagnostic stream, never on stdout.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is an error with enough context to be rendered as a
	// helpful message rather than a bare failure string.
	//
	// Construct via the Context builder:
	//
	//	return issue.NewContext().
	//		Operation("resolve runner").
	//		Resource("uvx").
	//		Suggest("install uv manually: https://docs.astral.sh/uv/").
	//		Wrap(err)
	ActionableError struct {
		// Op describes what was being attempted ("parse package spec",
		// "install runner").
		Op string
		// Resource identifies the spec, path or URL involved (optional).
		Resource string
		// Suggestions are hints for fixing the issue (optional).
		Suggestions []string
		// Cause is the underlying error (optional).
		Cause error
	}

	// Context is a fluent builder for ActionableError.
	Context struct {
		err ActionableError
	}
)

// NewContext creates an empty builder.
func NewContext() *Context {
	return &Context{}
}

// Operation sets what was being attempted.
func (c *Context) Operation(op string) *Context {
	c.err.Op = op
	return c
}

// Resource sets the entity involved in the failure.
func (c *Context) Resource(r string) *Context {
	c.err.Resource = r
	return c
}

// Suggest appends a remediation hint.
func (c *Context) Suggest(s string) *Context {
	c.err.Suggestions = append(c.err.Suggestions, s)
	return c
}

// Wrap attaches the underlying cause and returns the finished error.
func (c *Context) Wrap(cause error) *ActionableError {
	c.err.Cause = cause
	return c.Build()
}

// Build returns the finished error without a cause.
func (c *Context) Build() *ActionableError {
	e := c.err
	return &e
}

// Error returns the concise single-line message.
func (e *ActionableError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString("failed to " + e.Op)
	} else {
		b.WriteString("operation failed")
	}
	if e.Resource != "" {
		b.WriteString(": " + e.Resource)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes the cause to errors.Is/As classification.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error for display. Verbose mode appends the full
// cause chain; both modes list the suggestions, one per line.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if verbose && e.Cause != nil {
		for cause := errors.Unwrap(e.Cause); cause != nil; cause = errors.Unwrap(cause) {
			fmt.Fprintf(&b, "\n  caused by: %s", cause.Error())
		}
	}

	for _, s := range e.Suggestions {
		b.WriteString("\n  → " + s)
	}
	return b.String()
}
