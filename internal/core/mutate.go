package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/rconsole/internal/classify"
	"github.com/roach88/rconsole/internal/endpoint"
	"github.com/roach88/rconsole/internal/model"
)

// DeleteReport summarizes a batch delete.
type DeleteReport struct {
	// Removed lists refs the backend confirmed, in request order.
	Removed []string
	// Failed lists refs that failed without stopping the batch.
	Failed []string
	// Conflict is the ref whose conflict aborted the batch, if any.
	Conflict string
	// Aborted is true when a conflict stopped the batch.
	Aborted bool
}

// denyWrites notifies and returns an error when the provider is read-only.
func (c *Core) denyWrites(op string) error {
	if !c.ReadOnly() {
		return nil
	}
	c.notify(MsgUnsupported)
	return &OpError{Code: ErrCodeCapabilityDenied, Op: op, Message: MsgUnsupported}
}

// Update PUTs a raw resource document to the current section.
//
// The document must be a JSON object with metadata.ref; anything else is
// rejected locally. Whatever the outcome of the PUT, the current section is
// reloaded afterwards.
func (c *Core) Update(ctx context.Context, raw string) error {
	if err := c.denyWrites(OpUpdate); err != nil {
		return err
	}

	ref, err := model.DocumentRef([]byte(raw))
	if err != nil {
		c.notify(MsgMalformed)
		return &OpError{Code: ErrCodeMalformedInput, Op: OpUpdate, Message: MsgMalformed, Err: err}
	}

	section := c.Section()
	out, _, err := c.call(ctx, request{
		op:      OpUpdate,
		method:  http.MethodPut,
		segment: endpoint.Resource(section, ref),
		body:    []byte(raw),
		section: section,
	})

	var result error
	switch {
	case err != nil:
		c.notify(failureMessage(err))
		result = fmt.Errorf("update %s/%s: %w", section, ref, err)
	case out.OK():
		c.notify(MsgUpdated)
	default:
		c.notify(out.Text())
		result = fmt.Errorf("update %s/%s: %w", section, ref, out.Err())
	}

	if err := c.LoadResources(ctx, c.Section()); err != nil {
		c.logger.Debug("reload after update failed", "error", err)
	}
	return result
}

// DeleteMany deletes refs of section one at a time, in order.
//
// A conflict aborts the batch immediately: its message is notified and no
// reload happens. Other failures are collected and the batch continues.
// After the loop the current section is reloaded and one summary is notified.
func (c *Core) DeleteMany(ctx context.Context, section model.Section, refs []string) (DeleteReport, error) {
	var report DeleteReport
	if err := c.denyWrites(OpDelete); err != nil {
		return report, err
	}

	var failures []string
	for _, ref := range refs {
		out, _, err := c.call(ctx, request{
			op:      OpDelete,
			method:  http.MethodDelete,
			segment: endpoint.Resource(section, ref),
			section: section,
		})

		switch {
		case err != nil:
			failures = append(failures, failureMessage(err))
			report.Failed = append(report.Failed, ref)
		case out.OK():
			report.Removed = append(report.Removed, ref)
		case out.Kind == classify.KindConflict:
			report.Conflict = ref
			report.Aborted = true
			c.notify(out.Message)
			return report, fmt.Errorf("delete %s/%s: %w", section, ref, out.Err())
		default:
			failures = append(failures, out.Text())
			report.Failed = append(report.Failed, ref)
		}
	}

	if err := c.LoadResources(ctx, c.Section()); err != nil {
		c.logger.Debug("reload after delete failed", "error", err)
	}

	if len(failures) > 0 {
		c.notify(MsgDeleteFailed + strings.Join(failures, "; "))
		return report, &DeleteError{Section: string(section), Messages: failures}
	}
	c.notify(fmt.Sprintf("%d %s removed.", len(refs), section))
	return report, nil
}

// SaveConfig validates cfg against the configuration schema and PUTs it.
// Changes apply on the next service restart; the loaded config is unchanged.
func (c *Core) SaveConfig(ctx context.Context, cfg model.Config) error {
	if err := c.denyWrites(OpSaveConfig); err != nil {
		return err
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		c.notify(MsgMalformed)
		return &OpError{Code: ErrCodeMalformedInput, Op: OpSaveConfig, Message: "encode config", Err: err}
	}

	if c.validator != nil {
		if err := c.validator.Validate(body); err != nil {
			msg := MsgInvalidConfig + err.Error()
			c.notify(msg)
			return &OpError{Code: ErrCodeInvalidConfig, Op: OpSaveConfig, Message: msg, Err: err}
		}
	}

	out, _, err := c.call(ctx, request{
		op:      OpSaveConfig,
		method:  http.MethodPut,
		segment: endpoint.SegmentConfig,
		body:    body,
	})
	if err != nil {
		c.notify(failureMessage(err))
		return fmt.Errorf("save config: %w", err)
	}
	if !out.OK() {
		c.notify(out.TextWithData())
		return fmt.Errorf("save config: %w", out.Err())
	}
	c.notify(MsgConfigSaved)
	return nil
}

// ChangeStatus requests a service status transition, e.g. "running".
// now=false lets the service finish in-flight work first.
func (c *Core) ChangeStatus(ctx context.Context, status string, now bool) error {
	out, _, err := c.call(ctx, request{
		op:      OpChangeStatus,
		method:  http.MethodPost,
		segment: endpoint.SegmentStatus + "/" + url.PathEscape(status),
		query:   "now=" + strconv.FormatBool(now),
	})
	if err != nil {
		c.notify(failureMessage(err))
		return fmt.Errorf("change status %s: %w", status, err)
	}
	if !out.OK() {
		c.notify(out.TextWithData())
		return fmt.Errorf("change status %s: %w", status, out.Err())
	}
	c.notify(MsgRestarting)
	return nil
}
