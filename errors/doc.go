// Package errors provides structured error types for the ruby-marshal-go library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, Go type name, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindTypeMismatch).
//		Path("user", "age").
//		GoType("string").
//		Detail("cannot convert fixnum to string").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidVersion(3, 8)
//	err := errors.MissingSymbolLink(7)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
