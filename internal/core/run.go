package core

import (
	"context"

	"github.com/roach88/rconsole/internal/model"
)

// SetToken changes the token and enqueues a token event.
// Thread-safe: may be called from any goroutine.
func (c *Core) SetToken(token string) {
	c.apply(func() { c.token = token })
	c.queue.Enqueue(Event{Type: EventTypeToken, Token: token})
}

// SelectSection makes section current and enqueues a section event.
// Loads still in flight for the previous section will be discarded.
// Thread-safe: may be called from any goroutine.
func (c *Core) SelectSection(section model.Section) {
	c.apply(func() { c.section = section })
	c.queue.Enqueue(Event{Type: EventTypeSection, Section: section})
}

// Started reports whether the startup sequence has fired.
func (c *Core) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Start fires the startup sequence if it has not fired yet, regardless of
// the token. Returns the config or initial load error, or nil if the
// sequence had already fired.
func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	return c.startup(ctx)
}

// startup loads the config and, once that completes successfully, the
// current section.
func (c *Core) startup(ctx context.Context) error {
	c.logger.Info("startup sequence firing", "section", c.Section())

	if err := c.LoadConfig(ctx); err != nil {
		return err
	}
	section := c.Section()
	if !section.HasResources() {
		return nil
	}
	return c.LoadResources(ctx, section)
}

// maybeStart fires the startup sequence the first time a token is present
// or the core is in production. Reports whether it fired.
func (c *Core) maybeStart(ctx context.Context) bool {
	c.mu.Lock()
	if c.started || (c.token == "" && !c.production) {
		c.mu.Unlock()
		return false
	}
	c.started = true
	c.mu.Unlock()

	if err := c.startup(ctx); err != nil {
		c.logger.Debug("startup sequence failed", "error", err)
	}
	return true
}

// Run is the single-writer event loop.
// Blocks until ctx is cancelled or Stop is called.
//
// Must be called from exactly one goroutine. Event handling errors are
// logged and the loop continues; they have already been notified.
func (c *Core) Run(ctx context.Context) error {
	c.logger.Info("core starting")
	c.maybeStart(ctx)

	for {
		if ev, ok := c.queue.TryDequeue(); ok {
			c.handle(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("core stopping: context cancelled")
			c.queue.Close()
			return ctx.Err()

		case _, open := <-c.queue.Wait():
			if !open && c.queue.Len() == 0 {
				c.logger.Info("core stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue, which makes Run return once it is drained.
func (c *Core) Stop() {
	c.queue.Close()
}

// handle processes one event. Called only from Run.
func (c *Core) handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventTypeToken:
		c.maybeStart(ctx)

	case EventTypeSection:
		if c.maybeStart(ctx) {
			return
		}
		if !c.Started() || !c.Authorized() || ev.Section != c.Section() {
			return
		}
		if err := c.LoadResources(ctx, ev.Section); err != nil {
			c.logger.Debug("section load failed", "section", ev.Section, "error", err)
		}

	default:
		c.logger.Warn("unknown event type", "type", ev.Type)
	}
}
