// Package transport picks a condarun.Transport implementation from
// configuration. The choice is made once, at construction; every command
// the returned Transport executes uses the same strategy.
//
// Modes:
//   - local: spawn the executable per command (package local)
//   - rpc: uniform HTTP routing, /<command> (package remote)
//   - rest: resource HTTP routing, /env/... (package remote)
//   - socket: WebSocket streaming for every command (package socket)
//
// In rpc and rest modes a configured socket URL receives the commands
// that ask for progress.
package transport
