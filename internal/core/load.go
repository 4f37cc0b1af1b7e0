package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/roach88/rconsole/internal/classify"
	"github.com/roach88/rconsole/internal/endpoint"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/transport"
)

// LoadConfig fetches the configuration document.
//
// Every completed attempt sets ready. Success stores the document and sets
// authorized. Unauthorized clears authorized without a notification; any
// other failure is notified.
func (c *Core) LoadConfig(ctx context.Context) error {
	c.apply(func() { c.configLoading = true })

	out, _, err := c.call(ctx, request{
		op:      OpLoadConfig,
		method:  http.MethodGet,
		segment: endpoint.SegmentConfig,
		query:   endpoint.WildcardQuery,
	})

	finish := func(fn func()) {
		c.apply(func() {
			c.configLoading = false
			c.ready = true
			if fn != nil {
				fn()
			}
		})
	}

	if err != nil {
		finish(nil)
		c.notify(failureMessage(err))
		return fmt.Errorf("load config: %w", err)
	}

	switch out.Kind {
	case classify.KindSuccess:
		cfg, perr := model.ParseConfig(out.Data)
		if perr != nil {
			finish(nil)
			c.notify(MsgUnexpected)
			return fmt.Errorf("load config: %w", &transport.Error{Kind: transport.ErrParse, Method: http.MethodGet, URL: endpoint.SegmentConfig, Err: perr})
		}
		finish(func() {
			c.config = cfg
			c.authorized = true
		})
		c.logger.Info("config loaded", "provider", cfg.Provider(), "read_only", cfg.ReadOnly())
		return nil

	case classify.KindUnauthorized:
		finish(func() { c.authorized = false })
		c.logger.Info("config load unauthorized")
		return fmt.Errorf("load config: %w", out.Err())

	default:
		finish(nil)
		c.notify(out.Text())
		return fmt.Errorf("load config: %w", out.Err())
	}
}

// LoadResources fetches every item of section and replaces the cache.
//
// Sections without a resource list are a no-op. Parse failures leave the
// cache unchanged without a notification; every other failure is notified.
// A result that became stale while in flight is discarded and returns nil.
func (c *Core) LoadResources(ctx context.Context, section model.Section) error {
	if !section.HasResources() {
		return nil
	}

	c.apply(func() { c.loading++ })
	done := func() {
		c.apply(func() { c.loading-- })
	}

	out, seq, err := c.call(ctx, request{
		op:      OpLoadResources,
		method:  http.MethodGet,
		segment: endpoint.Collection(section),
		query:   endpoint.WildcardQuery,
		section: section,
	})
	if err != nil {
		done()
		if transport.IsParse(err) {
			c.logger.Warn("discarding unparseable resource load", "section", section, "seq", seq, "error", err)
		} else {
			c.notify(MsgUnreachable)
		}
		return fmt.Errorf("load %s: %w", section, err)
	}

	if !out.OK() {
		done()
		c.notify(out.Text())
		return fmt.Errorf("load %s: %w", section, out.Err())
	}

	records, err := model.NormalizeAll(out.Data, section)
	if err != nil {
		done()
		c.logger.Warn("discarding malformed resource load", "section", section, "seq", seq, "error", err)
		return fmt.Errorf("load %s: %w", section, &transport.Error{Kind: transport.ErrParse, Method: http.MethodGet, URL: endpoint.Collection(section), Err: err})
	}

	c.commit(section, seq, records)
	return nil
}

// commit swaps the cache unless the load is stale.
func (c *Core) commit(section model.Section, seq int64, records []model.ResourceRecord) {
	c.commitMu.Lock()

	c.mu.Lock()
	c.loading--
	stale := c.section != section || seq < c.committed[section]
	if !stale {
		c.committed[section] = seq
		c.loaded = true
	}
	current := c.section
	c.mu.Unlock()

	if stale {
		c.logger.Debug("discarding stale load", "section", section, "current", current, "seq", seq)
	} else {
		c.cache.Replace(section, seq, records)
		c.logger.Debug("resources committed", "section", section, "seq", seq, "count", len(records))
	}

	c.commitMu.Unlock()
	c.publish()
}
