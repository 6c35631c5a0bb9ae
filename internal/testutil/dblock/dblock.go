// Package dblock serialises Postgres integration tests across test binaries
// by holding a loopback port for the duration of a test.
package dblock

import (
	"context"
	"net"
	"os"
	"time"
)

const defaultAddr = "127.0.0.1:45433"

func lockAddr() string {
	if addr := os.Getenv("PROFITWAVE_TEST_LOCK_ADDR"); addr != "" {
		return addr
	}
	return defaultAddr
}

// Acquire blocks until the lock is held and returns its release func.
func Acquire() func() {
	release, _ := AcquireContext(context.Background())
	return release
}

// AcquireContext is Acquire bounded by ctx.
func AcquireContext(ctx context.Context) (func(), error) {
	addr := lockAddr()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return func() { ln.Close() }, nil
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-ticker.C:
		}
	}
}
