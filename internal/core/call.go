package core

import (
	"context"

	"github.com/roach88/rconsole/internal/classify"
	"github.com/roach88/rconsole/internal/endpoint"
	"github.com/roach88/rconsole/internal/journal"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/transport"
)

// Operation names as recorded in the journal.
const (
	OpLoadConfig    = "load_config"
	OpLoadResources = "load_resources"
	OpUpdate        = "update"
	OpDelete        = "delete"
	OpSaveConfig    = "save_config"
	OpChangeStatus  = "change_status"
	OpSystemLogs    = "system_logs"
	OpPing          = "ping"
)

// Journal outcomes for calls that produced no envelope.
const (
	OutcomeNetworkFailure = "network_failure"
	OutcomeParseFailure   = "parse_failure"
)

// request describes one backend call.
type request struct {
	op      string
	method  string
	segment string
	query   string
	body    []byte
	section model.Section
}

// call stamps, sends, classifies and journals one request.
// A non-nil error is always a *transport.Error.
func (c *Core) call(ctx context.Context, r request) (classify.Outcome, int64, error) {
	seq := c.clock.Next()

	c.mu.Lock()
	token := c.token
	baseURL := c.baseURLLocked()
	c.mu.Unlock()

	target := endpoint.Build(c.base, r.segment, r.query, token)
	c.logger.Debug("request", "op", r.op, "method", r.method, "path", target.Path, "seq", seq)

	resp, err := c.client.Do(ctx, transport.Request{
		Method:  r.method,
		BaseURL: baseURL,
		Target:  target,
		Body:    r.body,
	})

	entry := journal.Entry{
		Seq:       seq,
		RequestID: resp.RequestID,
		Op:        r.op,
		Method:    r.method,
		Path:      target.Path,
		Section:   string(r.section),
	}

	var out classify.Outcome
	if err != nil {
		entry.Outcome = failureOutcome(err)
		entry.Message = err.Error()
	} else {
		out = classify.Classify(resp.Envelope)
		entry.Outcome = out.Kind.String()
		entry.Status = out.Status
		entry.Message = out.Message
	}
	c.record(ctx, entry)

	return out, seq, err
}

func (c *Core) record(ctx context.Context, e journal.Entry) {
	if c.journal == nil {
		return
	}
	// Journal failures never fail the operation.
	if err := c.journal.Append(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warn("journal append failed", "seq", e.Seq, "op", e.Op, "error", err)
	}
}

func (c *Core) baseURLLocked() string {
	if c.apiURL != "" {
		return c.apiURL
	}
	return c.origin
}

func failureOutcome(err error) string {
	if transport.IsParse(err) {
		return OutcomeParseFailure
	}
	return OutcomeNetworkFailure
}

// failureMessage is the notification for a call that produced no envelope.
func failureMessage(err error) string {
	if transport.IsParse(err) {
		return MsgUnexpected
	}
	return MsgUnreachable
}
