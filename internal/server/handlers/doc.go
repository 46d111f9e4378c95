// Package handlers contains HTTP handlers for the stundenplan HTTP API.
//
// This package provides handlers for:
//   - PDF upload and synchronous export endpoints
//   - Queue and service status endpoints
//   - Health endpoints
//   - Shared response helper functions
//
// All handlers follow a consistent pattern for error handling and response formatting,
// using the foundation/errors package for structured error handling and the
// server/responses package for standardized HTTP responses.
package handlers
