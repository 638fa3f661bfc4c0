// Command condarun drives a package manager through condarun.
//
// Results are printed to stdout as indented JSON. With --progress,
// progress payloads are printed to stderr as they arrive.
//
// The transport comes from the config file named by --config or
// CONDARUN_CONFIG; --mode, --executable, --api-root and --socket-url
// override individual fields.
//
// Usage:
//
//	condarun info
//	condarun search --spec 'numpy>=1.26'
//	condarun install --name web --progress flask gunicorn
//	condarun config add channels conda-forge
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cmd := newRootCmd(newApp(os.Stdout, os.Stderr))
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
