package lifecycle

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/adamancini/stewardctl/internal/failure"
)

// AckReply is the service's reply to a successful stop request.
const AckReply = "Goodbye!"

// stopURL addresses the stop endpoint; the host is ignored by the unix dialer.
const stopURL = "http://stop/"

// maxReplyBytes caps how much of a stop reply is read.
const maxReplyBytes = 64 << 10

// StopResult describes the service's reply to a stop request.
type StopResult struct {
	Acknowledged bool
	Reply        string // raw reply when not acknowledged
}

// Controller sends control requests to the service over its unix socket.
type Controller struct {
	socketPath string
	client     *http.Client
	log        zerolog.Logger
}

// NewController creates a controller for the socket at socketPath.
func NewController(socketPath string) *Controller {
	transport := &http.Transport{
		MaxIdleConns:       1,
		IdleConnTimeout:    10 * time.Second,
		DisableCompression: true,
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}

	return &Controller{
		socketPath: socketPath,
		client: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		log: zerolog.Nop(),
	}
}

// WithLogger sets the diagnostic logger.
func (c *Controller) WithLogger(log zerolog.Logger) *Controller {
	c.log = log
	return c
}

// Stop asks the service to shut down. The reply is compared byte for byte
// with AckReply; anything else is returned verbatim.
func (c *Controller) Stop(ctx context.Context) (*StopResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stopURL, nil)
	if err != nil {
		return nil, failure.New(failure.KindUnknown, "create stop request", err)
	}

	c.log.Debug().Str("socket", c.socketPath).Msg("sending stop request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, failure.New(failure.KindConnection, "connect to StewardX", err).
			WithGuidance(fmt.Sprintf(
				"Couldn't connect to StewardX through %s. Is it running? Run the same command with LOG_LEVEL=debug for details",
				c.socketPath))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, failure.New(failure.KindConnection, "read stop reply", err)
	}

	reply := string(body)
	c.log.Debug().Int("status", resp.StatusCode).Str("reply", reply).Msg("stop reply received")

	if reply == AckReply {
		return &StopResult{Acknowledged: true}, nil
	}
	return &StopResult{Reply: reply}, nil
}
