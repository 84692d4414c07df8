// Command fakestewardx stands in for the StewardX service in end-to-end
// tests. It listens on the control socket and exits after a stop request.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	dir := os.Getenv("STEWARDX_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	if os.Getenv("STEWARDX_DATABASE_URL") == "" {
		fmt.Fprintln(os.Stderr, "STEWARDX_DATABASE_URL is not set")
		os.Exit(2)
	}

	ln, err := net.Listen("unix", filepath.Join(dir, "stewardx.sock"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := &http.Server{}
	srv.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "Goodbye!")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	})

	fmt.Println("fake stewardx listening")
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
