// Package condarun dispatches package-manager commands to a local executable
// or a remote service and surfaces both the final structured result and, for
// long-running operations, a live stream of progress updates.
//
// # Core Types
//
//   - [Command]: a logical request (name, ordered [Options] and positional arguments)
//   - [Transport]: executes a Command over one physical protocol
//   - [Future]: a deferred result with a side channel for progress payloads
//   - [Error]: tagged failure carrying an [ErrorKind], a cause and raw diagnostics
//
// Transports live in subpackages: transport/local spawns the executable and
// decodes its NUL-delimited JSON output with package frame, transport/remote
// maps commands onto an HTTP API (uniform or resource-oriented), and
// transport/socket streams progress over a WebSocket. Package transport selects
// one of them once, from configuration. Package conda wraps a Transport in
// typed environment, package and configuration operations, and package
// filter turns progress into composable channels.
//
// # Quick Start
//
//	t := local.New()
//	opts := condarun.NewOptions().Set("prefix", "/opt/envs/web").Set("quiet", false)
//	show := func(p json.RawMessage) { fmt.Println(string(p)) }
//	fut, err := t.Execute(ctx, condarun.NewCommand("install", opts, "numpy"), show)
//	if err != nil { log.Fatal(err) }
//	result, err := fut.Wait(ctx)
package condarun
