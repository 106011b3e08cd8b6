// Package api is the client side of the files HTTP API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see Client) covering the five calls the
//     workflows need: list files, request an upload URL, put the bytes,
//     request a download URL, delete a file. It also streams a ready object
//     to a writer.
//  2. An HTTP implementation (see HTTPClient) that sends JSON requests with an
//     optional API key and a per-request id, and maps status codes to
//     sentinel errors.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Non-2xx answers are *StatusError;
// 404 also matches ErrNotFound and 425 is reported as ErrNotReady. Bodies that
// cannot be decoded wrap ErrMalformedResponse. Match with errors.Is.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. Every call honors its context.
package api
