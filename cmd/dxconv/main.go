// Command dxconv converts configuration documents between the human (.human),
// compact (.dx) and machine (.machine) forms.
//
// Usage:
//
//	dxconv convert -i app.human -o app.machine --compression zstd
//	dxconv convert -i app.yaml -o app.dx
//	dxconv inspect app.machine
//	dxconv version
//
// Flag defaults can be set through DX_COMPRESSION, DX_LOG_LEVEL and DX_MAPPINGS_DIR.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
