package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/roach88/rconsole/internal/core"
	"github.com/roach88/rconsole/internal/journal"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/testutil"
	"github.com/roach88/rconsole/internal/transport"
)

// Harness is the scenario execution engine.
type Harness struct {
	core    *core.Core
	backend *testutil.Backend
	journal *journal.Journal
	tracer  *tracer
	logger  *slog.Logger
}

// tracer collects trace events from the notifier and the journal hook.
// Both fire synchronously inside core operations, so the order is the
// order in which things happened.
type tracer struct {
	mu     sync.Mutex
	events []TraceEvent
}

func (t *tracer) add(ev TraceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, ev)
}

func (t *tracer) snapshot() []TraceEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TraceEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Notify implements notify.Notifier.
func (t *tracer) Notify(msg string) {
	t.add(TraceEvent{Type: EventNotification, Message: msg})
}

// tracingJournal traces every entry before persisting it.
type tracingJournal struct {
	tracer  *tracer
	journal *journal.Journal
}

func (j tracingJournal) Append(ctx context.Context, e journal.Entry) error {
	ev := TraceEvent{
		Type:    EventRequest,
		Seq:     e.Seq,
		Op:      e.Op,
		Method:  e.Method,
		Path:    e.Path,
		Section: e.Section,
		Outcome: e.Outcome,
		Status:  e.Status,
	}
	// Transport failures carry the backend address, which changes every run.
	if e.Outcome != core.OutcomeNetworkFailure && e.Outcome != core.OutcomeParseFailure {
		ev.Message = e.Message
	}
	j.tracer.add(ev)
	return j.journal.Append(ctx, e)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh backend, core and in-memory journal.
//
// Execution flow:
// 1. Start the scripted backend
// 2. Build the core from the scenario setup
// 3. Execute flow steps with expect validation
// 4. Capture final state and journal
// 5. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	backend := testutil.StartBackend()
	defer backend.Close()

	for _, r := range scenario.Backend {
		backend.On(r.Method, r.Path, replies(r.Replies)...)
	}

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios
	tr := &tracer{}

	client := transport.New(
		transport.WithIDGenerator(testutil.NewFixedRequestIDs("")),
		transport.WithLogger(logger),
	)

	opts := []core.Option{
		core.WithAPIURL(backend.URL()),
		core.WithToken(scenario.Setup.Token),
		core.WithSection(model.Section(scenario.Setup.Section)),
		core.WithProduction(scenario.Setup.Production),
		core.WithJournal(tracingJournal{tracer: tr, journal: j}),
		core.WithLogger(logger),
	}
	if scenario.Setup.Base != "" {
		opts = append(opts, core.WithBase(scenario.Setup.Base))
	}

	h := &Harness{
		core:    core.New(client, tr, opts...),
		backend: backend,
		journal: j,
		tracer:  tr,
		logger:  logger,
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		tr.add(TraceEvent{Type: EventStep, Index: i, Op: step.Op})
		err := h.execute(ctx, step)
		if err != nil {
			h.markStepError(i)
		}
		if step.Expect != nil {
			switch {
			case step.Expect.Error && err == nil:
				result.AddError(fmt.Sprintf("flow[%d] %s: expected an error, got success", i, step.Op))
			case !step.Expect.Error && err != nil:
				result.AddError(fmt.Sprintf("flow[%d] %s: unexpected error: %v", i, step.Op, err))
			}
		}
		h.logger.Info("flow step completed", "step", i, "op", step.Op, "error", err)
	}

	result.Trace = tr.snapshot()
	result.State = h.finalState()
	entries, err := j.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	result.Journal = entries

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// markStepError flags the most recent step event as failed.
func (h *Harness) markStepError(index int) {
	h.tracer.mu.Lock()
	defer h.tracer.mu.Unlock()
	for i := len(h.tracer.events) - 1; i >= 0; i-- {
		ev := &h.tracer.events[i]
		if ev.Type == EventStep && ev.Index == index {
			ev.Error = true
			return
		}
	}
}

// execute runs one step against the core.
func (h *Harness) execute(ctx context.Context, step Step) error {
	c := h.core
	switch step.Op {
	case OpStart:
		return c.Start(ctx)

	case OpLoadConfig:
		return c.LoadConfig(ctx)

	case OpLoadResources:
		return c.LoadResources(ctx, model.Section(step.Section))

	case OpUpdate:
		return c.Update(ctx, step.Document)

	case OpDelete:
		_, err := c.DeleteMany(ctx, model.Section(step.Section), step.Refs)
		return err

	case OpSaveConfig:
		raw, err := json.Marshal(step.Config)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		cfg, err := model.ParseConfig(raw)
		if err != nil {
			return err
		}
		return c.SaveConfig(ctx, cfg)

	case OpChangeStatus:
		return c.ChangeStatus(ctx, step.Status, step.Now)

	case OpSystemLogs:
		if _, ok := c.SystemLogs(ctx); !ok {
			return fmt.Errorf("system logs unavailable")
		}
		return nil

	case OpPing:
		return c.Ping(ctx)

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// finalState captures the core's observable state for final_state assertions.
func (h *Harness) finalState() map[string]any {
	snap := h.core.Snapshot()
	refs := make([]any, 0, len(snap.Resources))
	for _, r := range snap.Resources {
		refs = append(refs, r.Ref)
	}
	return map[string]any{
		"phase":      snap.Phase.String(),
		"authorized": snap.Authorized,
		"ready":      snap.Ready,
		"read_only":  snap.ReadOnly,
		"section":    string(snap.Section),
		"provider":   h.core.Config().Provider(),
		"resources":  refs,
	}
}

// replies converts scripted replies for the backend.
func replies(specs []ReplySpec) []testutil.Reply {
	out := make([]testutil.Reply, len(specs))
	for i, s := range specs {
		out[i] = testutil.Reply{
			Status:     s.Status,
			Message:    s.Message,
			Data:       s.Data,
			Raw:        s.Raw,
			HTTPStatus: s.HTTPStatus,
			Drop:       s.Drop,
		}
		if out[i].Status == 0 && s.Raw == "" && !s.Drop {
			out[i].Status = http.StatusOK
		}
	}
	return out
}
