// Package cli provides the interactive filedrop command-line client.
//
// It wires configuration, the local cache, the files API client and the file
// service into a REPL. Each command runs one workflow to completion and
// reports failures as a single line, after which the CLI is ready again.
//
// Key features:
//   - List files (falls back to the cached list when the API is unreachable)
//   - Upload a local file through a pre-signed URL
//   - Download once the file is ready, polling a bounded number of times
//   - Delete with confirmation on an interactive terminal
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
