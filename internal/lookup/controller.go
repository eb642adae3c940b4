// Package lookup runs one search cycle: trim the input, fetch, classify,
// then render or notify, and finally reset the input field.
package lookup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/country"
	"github.com/pders01/cntry/internal/debuglog"
)

// ErrClosed is reported by cycles started after Close.
var ErrClosed = errors.New("lookup: controller closed")

// Fetcher queries the country service.
type Fetcher interface {
	FetchCountries(ctx context.Context, term string) ([]country.Country, error)
}

// Renderer turns view payloads into markup for the container.
type Renderer interface {
	Card(card country.CardView) (string, error)
	List(list country.ListView) (string, error)
}

// Container holds the rendered result.
type Container interface {
	Clear()
	Insert(markup string)
}

// Notifier shows transient messages. Notify must not block on dismissal.
type Notifier interface {
	Notify(n Notice)
}

// Field is the text input the user types into.
type Field interface {
	Reset()
}

// Recorder receives every finished, non-stale cycle.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// Result describes how a cycle ended.
type Result struct {
	Seq   uint64
	Term  string
	Kind  country.Kind
	Count int
	Err   error
	// Stale is set when the cycle's output was dropped: a newer cycle
	// started before its fetch returned, or the controller was closed.
	Stale bool
}

// Collaborators are the controller's injected dependencies. Recorder is
// optional.
type Collaborators struct {
	Fetcher   Fetcher
	Renderer  Renderer
	Container Container
	Notifier  Notifier
	Field     Field
	Recorder  Recorder
}

type Controller struct {
	fetcher   Fetcher
	renderer  Renderer
	container Container
	notifier  Notifier
	field     Field
	recorder  Recorder

	maxResults   int
	errorDelay   time.Duration
	tooManyDelay time.Duration
	noticeWidth  int
	discardStale bool

	baseCtx context.Context
	seq     atomic.Uint64

	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
}

type Option func(*Controller)

// WithBaseContext sets the context Handle runs cycles under. Cancelling it
// aborts in-flight fetches.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) { c.baseCtx = ctx }
}

func NewController(cfg config.LookupConfig, deps Collaborators, opts ...Option) *Controller {
	c := &Controller{
		fetcher:      deps.Fetcher,
		renderer:     deps.Renderer,
		container:    deps.Container,
		notifier:     deps.Notifier,
		field:        deps.Field,
		recorder:     deps.Recorder,
		maxResults:   cfg.MaxResults,
		errorDelay:   cfg.ErrorDelay,
		tooManyDelay: cfg.TooManyDelay,
		noticeWidth:  cfg.NoticeWidth,
		discardStale: cfg.DiscardStale,
		baseCtx:      context.Background(),
	}
	if c.maxResults <= 0 {
		c.maxResults = country.TooManyThreshold
	}
	if c.errorDelay <= 0 {
		c.errorDelay = 4 * time.Second
	}
	if c.tooManyDelay <= 0 {
		c.tooManyDelay = 1 * time.Second
	}
	if c.noticeWidth <= 0 {
		c.noticeWidth = 40
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle is the debounced entry point.
func (c *Controller) Handle(raw string) {
	c.Run(c.baseCtx, raw)
}

// Run executes one cycle and never panics or returns an error; failures
// become notifications and are reported in the Result.
func (c *Controller) Run(ctx context.Context, raw string) Result {
	term := strings.TrimSpace(raw)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{Term: term, Err: ErrClosed, Stale: true}
	}
	c.running.Add(1)
	c.mu.Unlock()
	defer c.running.Done()

	res := Result{Seq: c.seq.Add(1), Term: term}
	log := debuglog.WithFields(map[string]interface{}{
		"component": "lookup",
		"seq":       res.Seq,
		"term":      res.Term,
	})

	defer func() {
		if res.Stale {
			log.Debugf("Dropped stale cycle")
			return
		}
		c.field.Reset()
		log.Debugf("Cycle finished: kind=%s count=%d", res.Kind, res.Count)
		c.record(ctx, res)
	}()

	if res.Term == "" {
		res.Kind = country.KindInvalid
		c.container.Clear()
		c.notifier.Notify(c.wrongRequest())
		return res
	}

	log.Debugf("Fetching countries")
	results, err := c.fetcher.FetchCountries(ctx, res.Term)

	if c.discardStale && c.seq.Load() != res.Seq {
		res.Stale = true
		res.Err = err
		return res
	}

	if err != nil {
		log.Warnf("Lookup failed: %v", err)
		c.fail(&res, err)
		return res
	}

	outcome := country.ClassifyWithLimit(results, c.maxResults)
	res.Kind = outcome.Kind()
	res.Count = outcome.Len()

	switch o := outcome.(type) {
	case country.TooMany:
		c.container.Clear()
		c.notifier.Notify(c.tooMany(o.Count))
	case country.Single:
		markup, err := c.renderer.Card(country.NewCardView(o.Country))
		if err != nil {
			c.fail(&res, err)
			return res
		}
		c.container.Clear()
		c.container.Insert(markup)
	case country.Multiple:
		if len(o.Countries) == 0 {
			c.container.Clear()
			c.notifier.Notify(c.noMatches(res.Term))
			return res
		}
		markup, err := c.renderer.List(country.NewListView(o.Countries, res.Term))
		if err != nil {
			c.fail(&res, err)
			return res
		}
		c.container.Clear()
		c.container.Insert(markup)
	}
	return res
}

// Close refuses new cycles and waits for the running ones to finish. Cancel
// the base context first so in-flight fetches return promptly.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.running.Wait()
}

// Seq returns the sequence number of the latest cycle.
func (c *Controller) Seq() uint64 {
	return c.seq.Load()
}

func (c *Controller) fail(res *Result, err error) {
	res.Kind = country.KindFailed
	res.Count = 0
	res.Err = err
	c.container.Clear()
	c.notifier.Notify(c.problems(err))
}

func (c *Controller) record(ctx context.Context, res Result) {
	if c.recorder == nil || res.Kind == country.KindInvalid {
		return
	}
	if ctx.Err() != nil {
		debuglog.Debugf("Skipping history for %q: %v", res.Term, ctx.Err())
		return
	}
	if err := c.recorder.Record(ctx, res); err != nil {
		debuglog.Warnf("Recording lookup %q: %v", res.Term, err)
	}
}
