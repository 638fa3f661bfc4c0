// Package socket streams command progress over a WebSocket connection.
//
// Each Execute opens its own connection, sends one request frame
//
//	{"subcommand": "install", "flags": {...}, "positional": [...]}
//
// and reads frames until one carries "finished". Frames carrying "progress"
// are delivered through the returned Future as they arrive. The connection
// is closed once the result is in; a connection that fails or closes before
// a finished frame rejects the Future with a TransportFailure.
package socket
