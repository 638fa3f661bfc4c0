// Package remote executes commands against the package manager's HTTP API.
//
// Two API styles are supported, fixed per [Transport]:
//
//   - [Uniform]: every command is an endpoint of its own name under the API
//     root. Read-only commands use GET with a query string; the rest POST a
//     JSON body holding the options and a "positional" list.
//   - [Resource]: commands that address an environment are routed under
//     /env/name/<name> or /env/prefix/<prefix>, package operations address
//     one package per call, and the HTTP verb follows the operation.
//
// [Select] computes the [Route] for a command without performing any I/O.
// Responses carry only the final result; commands that ask for progress are
// handed to a streaming transport when one is configured with [WithStreamer].
package remote
