package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/roach88/rconsole/internal/endpoint"
)

// SystemLogs fetches the service logs. On any failure it notifies and
// returns (nil, false); callers must handle the empty result.
func (c *Core) SystemLogs(ctx context.Context) (json.RawMessage, bool) {
	out, _, err := c.call(ctx, request{
		op:      OpSystemLogs,
		method:  http.MethodGet,
		segment: endpoint.SegmentLogs,
	})
	if err != nil {
		c.notify(failureMessage(err))
		return nil, false
	}
	if !out.OK() {
		c.notify(out.Text())
		return nil, false
	}
	return out.Data, true
}

// SystemLogsURL derives the log stream socket URL from the API URL, or from
// the origin when none is configured.
func (c *Core) SystemLogsURL() string {
	c.mu.Lock()
	base := c.baseURLLocked()
	token := c.token
	c.mu.Unlock()

	return endpoint.SocketURL(base, c.base, endpoint.SegmentLogsWS, token)
}

// PingEndpoint returns the health check path.
func (c *Core) PingEndpoint() string {
	return endpoint.Build(c.base, endpoint.SegmentStatus, "", c.Token()).Path
}

// Ping checks that the backend answers. It never notifies.
func (c *Core) Ping(ctx context.Context) error {
	out, _, err := c.call(ctx, request{
		op:      OpPing,
		method:  http.MethodGet,
		segment: endpoint.SegmentStatus,
	})
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !out.OK() {
		return fmt.Errorf("ping: %w", out.Err())
	}
	return nil
}
