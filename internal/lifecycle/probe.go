package lifecycle

import (
	"context"
	"net"
	"os"
)

// Prober checks for a running service through its control socket.
type Prober struct {
	socketPath string
}

// NewProber creates a prober for the socket at socketPath.
func NewProber(socketPath string) *Prober {
	return &Prober{socketPath: socketPath}
}

// IsRunning reports whether the control socket exists. It does not connect,
// so a stale socket left by a crashed service still reads as running.
func (p *Prober) IsRunning() bool {
	_, err := os.Stat(p.socketPath)
	return err == nil
}

// Responsive reports whether something accepts connections on the socket.
func (p *Prober) Responsive(ctx context.Context) bool {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", p.socketPath)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
