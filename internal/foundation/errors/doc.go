// Package errors provides the classified error primitives used across freezer.
//
// Every failure that leaves a package boundary is a ClassifiedError built with
// the fluent ErrorBuilder:
//
//	err := errors.RenderError("render failed").
//		WithCause(cause).
//		WithContext("url", "/about").
//		Build()
//
// The category drives CLI exit codes (see CLIErrorAdapter); the severity
// separates fatal pipeline errors from warnings such as skipped routes or
// optional missing assets.
package errors
