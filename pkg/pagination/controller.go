package pagination

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/catalog-client/pkg/graphql"
)

var (
	// ErrInvalidPageSize is returned by New for a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be > 0")

	// ErrNilFetcher is returned by New without a fetcher.
	ErrNilFetcher = errors.New("fetcher is required")

	// ErrClosed is returned by WaitIdle once the controller is closed.
	ErrClosed = errors.New("controller closed")
)

// Config holds controller configuration.
type Config struct {
	// PageSize is the limit of every fetch.
	PageSize int

	// Name labels logs and metrics, usually the collection name.
	Name string
}

// DefaultConfig returns a default controller configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: 10,
		Name:     "list",
	}
}

// request is one outstanding fetch. seq increases monotonically per controller.
type request struct {
	seq    uint64
	cmd    Command
	offset int
	cancel context.CancelFunc
}

// Controller is the pagination state machine of a single list.
// All methods are safe for concurrent use.
type Controller struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	items    []Item
	phase    Phase
	hasMore  bool
	err      *ErrorInfo
	seq      uint64
	inflight *request
	closed   bool
	subs     map[uint64]chan ListState
	nextSub  uint64
}

// New creates a controller with an empty list in PhaseIdle and HasMore set.
func New(fetcher PageFetcher, cfg Config) (*Controller, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidPageSize, cfg.PageSize)
	}
	if cfg.Name == "" {
		cfg.Name = "list"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With().Str("component", "list-controller").Str("list", cfg.Name).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		phase:   PhaseIdle,
		hasMore: true,
		subs:    make(map[uint64]chan ListState),
	}, nil
}

// LoadInitial fetches the first page. It is legal on an idle empty list or
// after an error, and reports whether a fetch was issued.
func (c *Controller) LoadInitial() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.inflight != nil {
		return c.ignoreLocked(CommandLoadInitial)
	}
	if c.phase != PhaseError && !(c.phase == PhaseIdle && len(c.items) == 0) {
		return c.ignoreLocked(CommandLoadInitial)
	}

	c.issueLocked(CommandLoadInitial, 0)
	return true
}

// LoadMore fetches the page after the accumulated items. It is ignored while
// any fetch is outstanding or once the list is exhausted; after a failed
// LoadMore it retries from the same offset.
func (c *Controller) LoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.inflight != nil || !c.hasMore {
		return c.ignoreLocked(CommandLoadMore)
	}
	if c.phase != PhaseIdle && c.phase != PhaseError {
		return c.ignoreLocked(CommandLoadMore)
	}

	c.issueLocked(CommandLoadMore, len(c.items))
	return true
}

// Refresh refetches the first page and replaces the list. It is legal in any
// phase: an outstanding fetch is cancelled and its response discarded.
func (c *Controller) Refresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.ignoreLocked(CommandRefresh)
	}

	if prev := c.inflight; prev != nil {
		c.logger.Debug().
			Uint64("seq", prev.seq).
			Str("superseded", string(prev.cmd)).
			Msg("Refresh supersedes outstanding fetch")
		prev.cancel()
	}

	c.issueLocked(CommandRefresh, 0)
	return true
}

// NotifyChanged signals that the backing collection changed. It refreshes
// the list from offset 0.
func (c *Controller) NotifyChanged() {
	c.Refresh()
}

// State returns the current snapshot.
func (c *Controller) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives the current snapshot immediately
// and the latest snapshot after every change. A slow receiver skips
// intermediate snapshots. The channel is closed by the returned function or
// by Close.
func (c *Controller) Subscribe() (<-chan ListState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ListState, 1)
	ch <- c.snapshotLocked()
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// WaitIdle blocks until no fetch is outstanding and returns that snapshot.
func (c *Controller) WaitIdle(ctx context.Context) (ListState, error) {
	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	for {
		select {
		case state, ok := <-ch:
			if !ok {
				return c.State(), ErrClosed
			}
			if !state.Phase.Loading() {
				return state, nil
			}
		case <-ctx.Done():
			return ListState{}, ctx.Err()
		}
	}
}

// Close cancels any outstanding fetch, closes subscriber channels and waits
// for the fetch goroutine to return. No state changes after Close.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.inflight = nil
	c.cancel()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.wg.Wait()
	ListItems.DeleteLabelValues(c.config.Name)
	c.logger.Debug().Msg("Controller closed")
	return nil
}

func (c *Controller) ignoreLocked(cmd Command) bool {
	IgnoredCommands.WithLabelValues(string(cmd)).Inc()
	c.logger.Debug().
		Str("command", string(cmd)).
		Str("phase", string(c.phase)).
		Bool("has_more", c.hasMore).
		Bool("closed", c.closed).
		Msg("Command ignored")
	return false
}

func (c *Controller) issueLocked(cmd Command, offset int) {
	c.seq++
	ctx, cancel := context.WithCancel(c.ctx)
	req := &request{seq: c.seq, cmd: cmd, offset: offset, cancel: cancel}

	c.inflight = req
	c.phase = cmd.phase()
	c.err = nil
	FetchesTotal.WithLabelValues(string(cmd)).Inc()

	c.logger.Debug().
		Uint64("seq", req.seq).
		Str("command", string(cmd)).
		Int("offset", offset).
		Int("limit", c.config.PageSize).
		Msg("Issuing fetch")

	c.publishLocked()

	c.wg.Add(1)
	go c.run(ctx, req)
}

func (c *Controller) run(ctx context.Context, req *request) {
	defer c.wg.Done()
	defer req.cancel()

	page, err := c.fetcher.Fetch(ctx, req.offset, c.config.PageSize)
	c.complete(req, page, err)
}

// complete applies a fetch result if req is still the most recently issued request.
func (c *Controller) complete(req *request, page Page, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if c.inflight == nil || c.inflight.seq != req.seq {
		SupersededResponses.WithLabelValues(string(req.cmd)).Inc()
		c.logger.Debug().
			Uint64("seq", req.seq).
			Uint64("current_seq", c.seq).
			Str("command", string(req.cmd)).
			Msg("Discarding superseded response")
		return
	}
	c.inflight = nil

	if err != nil {
		class := graphql.ClassOf(err)
		FetchErrors.WithLabelValues(string(req.cmd), string(class)).Inc()
		c.phase = PhaseError
		c.err = &ErrorInfo{
			Class:   class,
			Message: err.Error(),
			Op:      req.cmd,
			Err:     err,
		}
		c.logger.Warn().
			Err(err).
			Uint64("seq", req.seq).
			Str("command", string(req.cmd)).
			Str("error_class", string(class)).
			Int("items", len(c.items)).
			Msg("Fetch failed, keeping loaded items")
		c.publishLocked()
		return
	}

	mode := MergeReplace
	if req.cmd == CommandLoadMore {
		mode = MergeAppend
	}
	c.items = Merge(c.items, page, mode)
	c.hasMore = page.ReturnedCount >= c.config.PageSize
	c.phase = PhaseIdle
	c.err = nil
	ListItems.WithLabelValues(c.config.Name).Set(float64(len(c.items)))

	c.logger.Info().
		Uint64("seq", req.seq).
		Str("command", string(req.cmd)).
		Str("mode", mode.String()).
		Int("offset", req.offset).
		Int("returned", page.ReturnedCount).
		Int("items", len(c.items)).
		Bool("has_more", c.hasMore).
		Msg("Page applied")

	c.publishLocked()
}

func (c *Controller) snapshotLocked() ListState {
	state := ListState{
		Items:   cloneItems(c.items),
		Phase:   c.phase,
		HasMore: c.hasMore,
	}
	if c.err != nil {
		errInfo := *c.err
		state.Error = &errInfo
	}
	return state
}

// publishLocked delivers the current snapshot, replacing any undelivered one.
func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		state := snap
		state.Items = cloneItems(snap.Items)
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

// cloneItems deep-copies items, including each Raw payload, so a snapshot
// shares no memory with the controller. The result is never nil.
func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = Item{ID: item.ID, Raw: slices.Clone(item.Raw)}
	}
	return out
}
