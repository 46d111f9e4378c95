// Package errors provides foundational, type-safe error primitives used across the service.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, document, extraction, export, etc.)
//   - ErrorSeverity: Impact level (error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff, rate-limit, user)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryExtraction, "page decode failed").
//		WithSeverity(errors.SeverityError).
//		WithRetry(errors.RetryNever).
//		WithContext("file", pdfPath).
//		Build()
package errors
