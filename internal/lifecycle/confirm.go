package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Backoff bounds for polling the socket path.
const (
	pollInitial = 50 * time.Millisecond
	pollMax     = time.Second
)

// SocketWaiter waits for a socket file to appear.
type SocketWaiter struct {
	log zerolog.Logger
}

// NewSocketWaiter creates a waiter.
func NewSocketWaiter(log zerolog.Logger) *SocketWaiter {
	return &SocketWaiter{log: log}
}

// WaitForSocket blocks until path exists, timeout elapses or ctx is done.
// It watches the parent directory for create events and also polls with
// exponential backoff, since a watch can miss a file created before it was
// registered. Returns true if the socket appeared.
func (w *SocketWaiter) WaitForSocket(ctx context.Context, path string, timeout time.Duration) bool {
	if exists(path) {
		return true
	}
	if timeout <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var events <-chan fsnotify.Event
	var errs <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Debug().Err(err).Msg("fsnotify unavailable, polling only")
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			w.log.Debug().Err(err).Str("dir", filepath.Dir(path)).Msg("cannot watch socket directory, polling only")
		} else {
			events = watcher.Events
			errs = watcher.Errors
		}
	}

	delay := pollInitial
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return exists(path)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(path) && ev.Has(fsnotify.Create) {
				w.log.Debug().Str("socket", path).Msg("socket created")
				return true
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Debug().Err(err).Msg("watch error")
		case <-timer.C:
			if exists(path) {
				return true
			}
			delay *= 2
			if delay > pollMax {
				delay = pollMax
			}
			timer.Reset(delay)
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
