// Package controller drives a single streamed summary request from submission
// to its terminal outcome.
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/markis/smart-summary/internal/client"
	"github.com/markis/smart-summary/internal/stream"
	"github.com/rs/zerolog"
)

// Transport opens the streamed response for a request.
type Transport interface {
	Summarize(ctx context.Context, req client.SummaryRequest) (io.ReadCloser, error)
}

// Listener observes a request. OnUpdate receives the whole accumulated text
// after each chunk that changed it. OnFinish is called exactly once per
// request when it reaches a terminal state. Both run on the controller's
// goroutine. They may call Cancel, Text, State and Outcome, but not Start,
// Run or Wait, which block until the calling request has finished.
type Listener interface {
	OnUpdate(text string)
	OnFinish(outcome Outcome)
}

type nopListener struct{}

func (nopListener) OnUpdate(string)  {}
func (nopListener) OnFinish(Outcome) {}

// Option configures a Controller.
type Option func(*Controller)

func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listener = l
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithChunkSize sets the maximum number of bytes read from the body at once.
func WithChunkSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

type snapshot struct {
	state   State
	text    string
	outcome Outcome
}

type run struct {
	id      string
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
}

// Controller owns the accumulated text and outcome of one request at a time.
// Its accessors are safe for concurrent use and always observe text that
// includes whole chunks only.
type Controller struct {
	transport Transport
	listener  Listener
	logger    zerolog.Logger
	chunkSize int

	// startMu serializes Start so only one caller waits for the previous run.
	startMu sync.Mutex
	mu      sync.Mutex
	current *run
	snap    atomic.Pointer[snapshot]
}

func New(transport Transport, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		listener:  nopListener{},
		logger:    zerolog.Nop(),
		chunkSize: stream.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "controller").Logger()
	c.store(StateIdle, "", Outcome{})
	return c
}

// Start validates req and begins streaming it in the background. A request
// that is still active is cancelled first, and Start returns only once it
// has finished. Invalid requests leave the controller untouched.
func (c *Controller) Start(ctx context.Context, req client.SummaryRequest) error {
	_, err := c.start(ctx, req)
	return err
}

// Run is Start followed by waiting for the request's outcome. The error is
// non-nil only when req is invalid.
func (c *Controller) Run(ctx context.Context, req client.SummaryRequest) (Outcome, error) {
	r, err := c.start(ctx, req)
	if err != nil {
		return Outcome{}, err
	}
	<-r.done
	return r.outcome, nil
}

// Cancel abandons the current request, if any. It takes effect the next
// time the controller waits for a chunk.
func (c *Controller) Cancel() {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r != nil {
		r.cancel()
	}
}

// Wait blocks until the current request finishes or ctx is done.
func (c *Controller) Wait(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	r := c.current
	c.mu.Unlock()
	if r == nil {
		return Outcome{}, ErrIdle
	}

	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Text returns the accumulated summary of the current request.
func (c *Controller) Text() string {
	return c.snap.Load().text
}

func (c *Controller) State() State {
	return c.snap.Load().state
}

// Outcome returns the current request's outcome, StatusInProgress until it
// reaches a terminal state.
func (c *Controller) Outcome() Outcome {
	return c.snap.Load().outcome
}

func (c *Controller) start(ctx context.Context, req client.SummaryRequest) (*run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.startMu.Lock()
	defer c.startMu.Unlock()

	// The previous run stays current until it has finished, so Cancel calls
	// made meanwhile, including from its listener, target that run.
	c.mu.Lock()
	prev := c.current
	c.mu.Unlock()
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	ctx, cancel := context.WithCancel(ctx)
	r := &run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.mu.Lock()
	c.current = r
	c.store(StateRequesting, "", Outcome{})
	c.mu.Unlock()

	go c.execute(ctx, r, req)
	return r, nil
}

func (c *Controller) execute(ctx context.Context, r *run, req client.SummaryRequest) {
	defer close(r.done)
	defer r.cancel()

	logger := c.logger.With().Str("request_id", r.id).Logger()
	logger.Debug().Stringer("state", StateRequesting).Int("max_length", req.MaxLength).Msg("transition")

	outcome, text := c.consume(client.WithRequestID(ctx, r.id), logger, req)
	r.outcome = outcome
	c.store(outcome.state(), text, outcome)

	switch outcome.Status {
	case StatusFailed:
		logger.Warn().Err(outcome.Err).Str("message", outcome.Message).Msg("summary failed")
	default:
		logger.Debug().Stringer("state", outcome.state()).Int("bytes", len(text)).Msg("transition")
	}

	c.listener.OnFinish(outcome)
}

// consume performs the request and folds the body into the accumulated
// text. It returns the outcome together with the text accumulated so far.
func (c *Controller) consume(ctx context.Context, logger zerolog.Logger, req client.SummaryRequest) (Outcome, string) {
	body, err := c.transport.Summarize(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return cancelled(), ""
		}
		return failed(err.Error(), err), ""
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.Debug().Err(err).Msg("failed to close response body")
		}
	}()

	if ctx.Err() != nil {
		return interrupted(ctx), ""
	}
	c.store(StateStreaming, "", Outcome{})
	logger.Debug().Stringer("state", StateStreaming).Msg("transition")

	parser := stream.NewParser(logger)
	defer parser.Close()

	var text string
	chunks := stream.Pump(ctx, body, c.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return interrupted(ctx), text
		case chunk, ok := <-chunks:
			if !ok || ctx.Err() != nil {
				return interrupted(ctx), text
			}
			if chunk.Err != nil {
				if errors.Is(chunk.Err, io.EOF) {
					return completed(text), text
				}
				return failed(fmt.Sprintf("stream interrupted: %v", chunk.Err), chunk.Err), text
			}

			next, fail := fold(text, parser.Feed(chunk.Data))
			if next != text {
				text = next
				c.store(StateStreaming, text, Outcome{})
				c.listener.OnUpdate(text)
			}
			if fail != nil {
				return *fail, text
			}
		}
	}
}

// interrupted classifies a done context. Only an explicit cancellation is
// Cancelled; a passed deadline is a transport failure.
func interrupted(ctx context.Context) Outcome {
	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		return failed(fmt.Sprintf("stream interrupted: %v", err), err)
	}
	return cancelled()
}

// fold applies actions to text. It stops at the first fail action and
// returns the failed outcome alongside the text appended before it.
func fold(text string, actions iter.Seq[stream.Action]) (string, *Outcome) {
	var sb strings.Builder
	sb.WriteString(text)

	for action := range actions {
		switch action.Kind {
		case stream.ActionAppend:
			sb.WriteString(action.Content)
		case stream.ActionFail:
			msg := action.Content
			if msg == "" {
				msg = defaultApplicationMessage
			}
			outcome := failed(msg, &ApplicationError{Message: msg})
			return sb.String(), &outcome
		}
	}
	return sb.String(), nil
}

func (c *Controller) store(state State, text string, outcome Outcome) {
	c.snap.Store(&snapshot{state: state, text: text, outcome: outcome})
}
