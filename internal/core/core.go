package core

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/rconsole/internal/cache"
	"github.com/roach88/rconsole/internal/endpoint"
	"github.com/roach88/rconsole/internal/journal"
	"github.com/roach88/rconsole/internal/model"
	"github.com/roach88/rconsole/internal/notify"
	"github.com/roach88/rconsole/internal/schema"
	"github.com/roach88/rconsole/internal/transport"
)

// DefaultOrigin is used for requests when no API URL is configured.
const DefaultOrigin = "http://localhost"

// Journal records every backend round trip.
// Implemented by *journal.Journal.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}

// ConfigValidator checks a serialized configuration before it is saved.
// Implemented by *schema.Validator.
type ConfigValidator interface {
	Validate(doc []byte) error
}

var defaultValidator = sync.OnceValues(schema.New)

// Phase is the observable state of the startup handshake and loads.
type Phase int

const (
	PhaseUnauthenticated Phase = iota + 1
	PhaseConfigLoading
	PhaseAuthorized
	PhaseUnauthorized
	PhaseResourcesLoading
	PhaseIdle
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseConfigLoading:
		return "config_loading"
	case PhaseAuthorized:
		return "authorized"
	case PhaseUnauthorized:
		return "unauthorized"
	case PhaseResourcesLoading:
		return "resources_loading"
	case PhaseIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the core's observable state.
type Snapshot struct {
	Phase      Phase
	Authorized bool
	Ready      bool
	Section    model.Section
	ReadOnly   bool
	// Seq is the stamp of the load that produced Resources, 0 before any.
	Seq       int64
	Resources []model.ResourceRecord
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Core is the synchronization core. Construct with New; the instance is owned
// by the process and passed to every consumer.
type Core struct {
	client    transport.Doer
	notifier  notify.Notifier
	journal   Journal
	validator ConfigValidator
	clock     *Clock
	logger    *slog.Logger
	cache     *cache.Cache
	queue     *eventQueue

	base       string
	origin     string
	production bool

	mu            sync.Mutex
	token         string
	apiURL        string
	started       bool
	authorized    bool
	ready         bool
	configLoading bool
	config        model.Config
	section       model.Section
	loading       int
	loaded        bool
	committed     map[model.Section]int64

	// commitMu orders the staleness check with the cache swap.
	commitMu sync.Mutex

	listenersMu sync.Mutex
	listeners   []subscription
	nextID      int
}

// Option configures a Core.
type Option func(*Core)

// WithBase sets the versioned API root. Default: endpoint.DefaultBase.
func WithBase(base string) Option {
	return func(c *Core) {
		c.base = base
	}
}

// WithAPIURL sets the scheme and host requests are sent to.
func WithAPIURL(url string) Option {
	return func(c *Core) {
		c.apiURL = url
	}
}

// WithOrigin sets the fallback used when no API URL is configured.
func WithOrigin(origin string) Option {
	return func(c *Core) {
		c.origin = origin
	}
}

// WithProduction marks the core as deployed. The token is then injected by a
// proxy, so startup does not wait for SetToken.
func WithProduction(production bool) Option {
	return func(c *Core) {
		c.production = production
	}
}

// WithSection sets the initially selected section.
func WithSection(section model.Section) Option {
	return func(c *Core) {
		c.section = section
	}
}

// WithToken sets the initial token without enqueueing an event.
func WithToken(token string) Option {
	return func(c *Core) {
		c.token = token
	}
}

// WithJournal records every round trip.
func WithJournal(j Journal) Option {
	return func(c *Core) {
		c.journal = j
	}
}

// WithClock replaces the logical clock, e.g. one resumed from a journal.
func WithClock(clock *Clock) Option {
	return func(c *Core) {
		c.clock = clock
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Core) {
		c.logger = l
	}
}

// WithValidator replaces the configuration schema.
func WithValidator(v ConfigValidator) Option {
	return func(c *Core) {
		c.validator = v
	}
}

// New creates a Core. A nil notifier discards notifications.
func New(client transport.Doer, notifier notify.Notifier, opts ...Option) *Core {
	if notifier == nil {
		notifier = notify.Discard
	}
	c := &Core{
		client:    client,
		notifier:  notifier,
		clock:     NewClock(),
		logger:    slog.Default(),
		cache:     cache.New(),
		queue:     newEventQueue(),
		base:      endpoint.DefaultBase,
		origin:    DefaultOrigin,
		config:    model.DefaultConfig(),
		committed: make(map[model.Section]int64),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		v, err := defaultValidator()
		if err != nil {
			c.logger.Error("config schema unavailable", "error", err)
		} else {
			c.validator = v
		}
	}
	return c
}

// Token returns the current token.
func (c *Core) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Authorized reports whether the last config load succeeded.
func (c *Core) Authorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authorized
}

// Ready reports whether a config load attempt has completed.
func (c *Core) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Config returns the loaded configuration, or the default before a load.
func (c *Core) Config() model.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// ReadOnly reports whether the configured provider forbids writes.
func (c *Core) ReadOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.ReadOnly()
}

// Section returns the current section.
func (c *Core) Section() model.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.section
}

// Resources returns a copy of the committed records.
func (c *Core) Resources() []model.ResourceRecord {
	return c.cache.Read()
}

// Cache exposes the resource cache for record-only subscribers.
func (c *Core) Cache() *cache.Cache {
	return c.cache
}

// EndpointBase returns the versioned API root.
func (c *Core) EndpointBase() string {
	return c.base
}

// APIURL returns the configured API URL, or "" if none is set.
func (c *Core) APIURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiURL
}

// SetAPIURL changes where subsequent requests are sent.
func (c *Core) SetAPIURL(url string) {
	c.mu.Lock()
	c.apiURL = url
	c.mu.Unlock()
}

// Snapshot returns the observable state.
func (c *Core) Snapshot() Snapshot {
	c.mu.Lock()
	s := Snapshot{
		Phase:      c.phaseLocked(),
		Authorized: c.authorized,
		Ready:      c.ready,
		Section:    c.section,
		ReadOnly:   c.config.ReadOnly(),
	}
	c.mu.Unlock()

	cs := c.cache.Snapshot()
	s.Seq = cs.Seq
	s.Resources = cs.Records
	return s
}

// Subscribe registers fn to receive a snapshot after every change.
// Listeners run synchronously on the goroutine that made the change and must
// not call blocking operations of the same Core.
func (c *Core) Subscribe(fn Listener) (cancel func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, subscription{id: id, fn: fn})
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		for i, sub := range c.listeners {
			if sub.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Core) publish() {
	c.listenersMu.Lock()
	if len(c.listeners) == 0 {
		c.listenersMu.Unlock()
		return
	}
	subs := make([]subscription, len(c.listeners))
	copy(subs, c.listeners)
	c.listenersMu.Unlock()

	s := c.Snapshot()
	for _, sub := range subs {
		own := s
		own.Resources = slices.Clone(s.Resources)
		sub.fn(own)
	}
}

func (c *Core) phaseLocked() Phase {
	switch {
	case c.configLoading:
		return PhaseConfigLoading
	case !c.ready:
		return PhaseUnauthenticated
	case !c.authorized:
		return PhaseUnauthorized
	case c.loading > 0:
		return PhaseResourcesLoading
	case c.loaded:
		return PhaseIdle
	default:
		return PhaseAuthorized
	}
}

// apply runs fn under the state lock, then notifies listeners.
func (c *Core) apply(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	c.publish()
}

func (c *Core) notify(msg string) {
	c.logger.Debug("notify", "message", msg)
	c.notifier.Notify(msg)
}
