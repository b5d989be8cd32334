package netkit

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Transport executes wire requests. Implementations report failures that
// produced no HTTP response as [*TransportError]; any HTTP status, including
// errors, is a successful Execute.
type Transport interface {
	Execute(ctx context.Context, req *WireRequest) (*Response, error)
	// InvalidateCachedResponse drops any locally cached response for
	// exactly req. Transports without a cache return nil.
	InvalidateCachedResponse(ctx context.Context, req *WireRequest) error
}

// Requester is the capability repositories depend on. [*Client] is the
// production implementation.
type Requester interface {
	// Request performs a single attempt and decodes a 2xx body into out.
	Request(ctx context.Context, e Endpoint, out any) error
	// RequestWithRetry repeats Request according to policy.
	RequestWithRetry(ctx context.Context, e Endpoint, policy RetryPolicy, out any) error
}

var _ Requester = (*Client)(nil)

// Client orchestrates request building, transport, classification and
// retry. It holds no per-call state and is safe for concurrent use.
type Client struct {
	transport      Transport
	decoder        Decoder
	clock          Clock
	hooks          *Hooks
	logger         *log.Logger
	attemptTimeout time.Duration
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithDecoder sets the body decoder. Defaults to [JSONDecoder].
func WithDecoder(d Decoder) ClientOption {
	return func(c *Client) {
		c.decoder = d
	}
}

// WithClock sets the clock used for inter-retry delays.
func WithClock(clk Clock) ClientOption {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h *Hooks) ClientOption {
	return func(c *Client) {
		c.hooks = h
	}
}

// WithLogger enables logging: one debug line per attempt and one warning
// per scheduled retry, tagged with a per-call id.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithAttemptTimeout bounds every transport call. An attempt that runs out
// of time while the caller's context is still live fails with a
// [TransportTimeout] error, which the default policies retry.
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.attemptTimeout = d
	}
}

// NewClient returns a client executing requests through transport.
func NewClient(transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		decoder:   JSONDecoder{},
		clock:     RealClock{},
		hooks:     &Hooks{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	if c.hooks == nil {
		c.hooks = &Hooks{}
	}

	return c
}

// Request implements [Requester]. It builds the request, drops the cached
// response first when the endpoint asks to ignore the local cache, executes
// once and classifies the outcome. There is no retry.
func (c *Client) Request(ctx context.Context, e Endpoint, out any) error {
	req, err := BuildRequest(e)
	if err != nil {
		return err
	}

	return c.perform(ctx, req, out, 0, c.callLogger(req))
}

// RequestWithRetry implements [Requester]. It makes up to
// policy.MaxRetries()+1 attempts. An error the policy does not retry is
// returned as-is; when retryable failures use up every attempt the last one
// is wrapped in [ErrMaxRetriesExceeded]. Cancellation is returned as the
// context's error.
func (c *Client) RequestWithRetry(
	ctx context.Context,
	e Endpoint,
	policy RetryPolicy,
	out any,
) error {
	req, err := BuildRequest(e)
	if err != nil {
		return err
	}

	logger := c.callLogger(req)

	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries(); attempt++ {
		err = c.perform(ctx, req, out, attempt, logger)
		if err == nil {
			return nil
		}

		if IsCanceled(err) && ctx.Err() != nil {
			return err
		}

		lastErr = err

		if !policy.ShouldRetry(err, attempt) {
			if attempt == policy.MaxRetries() && policy.Retryable(err) {
				break
			}

			return err
		}

		delay := policy.Delay(attempt)

		c.hooks.emitRetry(attempt, err, delay)
		logger.Warn("retrying", "attempt", attempt, "delay", delay, "err", err)

		if err = c.wait(ctx, delay); err != nil {
			return err
		}
	}

	logger.Error("giving up", "attempts", policy.MaxRetries()+1, "err", lastErr)

	return MaxRetriesExceeded(lastErr)
}

// perform is one attempt: the unit that is repeated on retry, cache
// invalidation included.
func (c *Client) perform(
	ctx context.Context,
	req *WireRequest,
	out any,
	attempt int,
	logger *log.Logger,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if req.CachePolicy == ReloadIgnoringLocalCache {
		if err := c.transport.InvalidateCachedResponse(ctx, req); err != nil {
			logger.Debug("cache invalidation failed", "err", err)
		}
	}

	c.hooks.emitAttempt(attempt, req)
	logger.Debug("attempt", "n", attempt, "method", req.Method, "url", req.URL)

	resp, err := c.execute(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return err
	}

	return Handle(resp, c.decoder, out)
}

func (c *Client) execute(ctx context.Context, req *WireRequest) (*Response, error) {
	if c.attemptTimeout <= 0 {
		return c.transport.Execute(ctx, req)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	resp, err := c.transport.Execute(attemptCtx, req)
	if err == nil || ctx.Err() != nil {
		return resp, err
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		var te *TransportError
		if !errors.As(err, &te) || te.Kind != TransportTimeout {
			return nil, &TransportError{Kind: TransportTimeout, Err: err}
		}
	}

	return resp, err
}

// wait blocks for d on the client's clock. The context is checked again
// once the delay has elapsed.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d > 0 {
		timer := c.clock.NewTimer(d)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return ctx.Err()
}

func (c *Client) callLogger(req *WireRequest) *log.Logger {
	return c.logger.With("call", uuid.NewString(), "method", req.Method, "url", req.URL)
}

// ---------------------------------------------------------------------------
// Typed helpers
// ---------------------------------------------------------------------------

// Fetch performs a single attempt and returns the decoded body.
func Fetch[T any](ctx context.Context, r Requester, e Endpoint) (T, error) {
	var v T
	if err := r.Request(ctx, e, &v); err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}

// FetchWithRetry is [Fetch] under a retry policy.
func FetchWithRetry[T any](
	ctx context.Context,
	r Requester,
	e Endpoint,
	policy RetryPolicy,
) (T, error) {
	var v T
	if err := r.RequestWithRetry(ctx, e, policy, &v); err != nil {
		var zero T
		return zero, err
	}

	return v, nil
}

// FetchAsync runs [FetchWithRetry] in its own goroutine. The channel
// receives exactly one [Result] and is then closed.
func FetchAsync[T any](
	ctx context.Context,
	r Requester,
	e Endpoint,
	policy RetryPolicy,
) <-chan Result[T] {
	ch := make(chan Result[T], 1)

	go func() {
		defer close(ch)

		v, err := FetchWithRetry[T](ctx, r, e, policy)
		if err != nil {
			ch <- Failure[T](err)
			return
		}

		ch <- Success(v)
	}()

	return ch
}
