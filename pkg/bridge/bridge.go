// Package bridge turns one callback-driven partner operation into one
// awaitable result.
//
// A Pending is resolved at most once. The first Resume or ResumeWithError
// wins; every later call is discarded and reported to the drop handler only.
// Callbacks may arrive on any goroutine, and may keep arriving after the
// caller stopped waiting.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"weak"

	"github.com/echoface/mediation-adapter/pkg/concurrent"
)

// ErrAbandoned is returned by Await when the caller's context ended before
// the partner called back.
var ErrAbandoned = errors.New("bridge: pending operation abandoned")

// IsAbandoned reports whether err means the caller stopped waiting rather
// than the partner failing.
func IsAbandoned(err error) bool {
	return errors.Is(err, ErrAbandoned) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

const (
	statePending int32 = iota
	stateResolved
	stateAbandoned
)

// Operation starts the partner call. It must hand the continuation to
// whatever listener the partner SDK invokes later.
type Operation[T any] func(c *Continuation[T])

// Option customizes a pending operation.
type Option func(*options)

type options struct {
	onDrop  func(key string)
	tracker *Tracker
}

// WithDropHandler observes resumes discarded because the operation was
// already resolved or abandoned.
func WithDropHandler(fn func(key string)) Option {
	return func(o *options) {
		o.onDrop = fn
	}
}

// WithTracker registers the operation in t until it resolves or is abandoned.
func WithTracker(t *Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

// cell is the single-use completion slot.
type cell[T any] struct {
	key     string
	trackID uint64
	state   atomic.Int32
	done    chan struct{}
	result  concurrent.Result[T]
	opts    options
}

func newCell[T any](key string, opts []Option) *cell[T] {
	c := &cell[T]{key: key, done: make(chan struct{})}
	for _, opt := range opts {
		if opt != nil {
			opt(&c.opts)
		}
	}
	return c
}

func (c *cell[T]) resolve(r concurrent.Result[T]) bool {
	if !c.state.CompareAndSwap(statePending, stateResolved) {
		c.opts.dropped(c.key)
		return false
	}
	c.result = r
	close(c.done)
	c.untrack()
	return true
}

func (c *cell[T]) abandon() bool {
	if !c.state.CompareAndSwap(statePending, stateAbandoned) {
		return false
	}
	c.untrack()
	return true
}

func (c *cell[T]) untrack() {
	if c.opts.tracker != nil {
		c.opts.tracker.remove(c.trackID)
	}
}

func (o *options) dropped(key string) {
	if o.onDrop != nil {
		o.onDrop(key)
	}
}

// Continuation is what the partner listener resumes. It only weakly
// references the pending slot: once the caller drops its Pending, late
// callbacks find nothing and become no-ops.
type Continuation[T any] struct {
	key  string
	ref  weak.Pointer[cell[T]]
	opts options
}

// Key returns the correlation key of the operation.
func (c *Continuation[T]) Key() string {
	return c.key
}

// Resume resolves the operation with v. It reports whether this call won.
func (c *Continuation[T]) Resume(v T) bool {
	return c.complete(concurrent.Result[T]{Value: v})
}

// ResumeWithError resolves the operation with err. A nil err is replaced by a
// generic failure so the caller never sees a zero value without an error.
func (c *Continuation[T]) ResumeWithError(err error) bool {
	if err == nil {
		err = fmt.Errorf("bridge: %s failed without an error", c.key)
	}
	return c.complete(concurrent.Result[T]{Error: err})
}

func (c *Continuation[T]) complete(r concurrent.Result[T]) bool {
	if c == nil {
		return false
	}
	target := c.ref.Value()
	if target == nil {
		c.opts.dropped(c.key)
		return false
	}
	return target.resolve(r)
}

// Pending is the caller side of one in-flight partner operation.
type Pending[T any] struct {
	cell *cell[T]
}

// Start creates the pending operation and invokes op exactly once. A panic
// raised by op resolves the operation with an error.
func Start[T any](key string, op Operation[T], opts ...Option) *Pending[T] {
	c := newCell[T](key, opts)
	if t := c.opts.tracker; t != nil {
		c.trackID = t.add(key)
		// a caller that drops its Pending without awaiting still frees the entry
		runtime.AddCleanup(c, t.remove, c.trackID)
	}
	cont := &Continuation[T]{key: key, ref: weak.Make(c), opts: c.opts}

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.resolve(concurrent.Result[T]{Error: fmt.Errorf("bridge: %s panicked: %v", key, r)})
			}
		}()
		op(cont)
	}()

	return &Pending[T]{cell: c}
}

// Fail returns an operation already resolved with err. It is used for
// precondition failures that must not reach the partner.
func Fail[T any](key string, err error) *Pending[T] {
	c := newCell[T](key, nil)
	if err == nil {
		err = fmt.Errorf("bridge: %s failed without an error", key)
	}
	c.resolve(concurrent.Result[T]{Error: err})
	return &Pending[T]{cell: c}
}

// Run starts op and waits for its result.
func Run[T any](ctx context.Context, key string, op Operation[T], opts ...Option) (T, error) {
	return Start(key, op, opts...).Await(ctx)
}

// Key returns the correlation key of the operation.
func (p *Pending[T]) Key() string {
	return p.cell.key
}

// Resolved reports whether a result has been recorded.
func (p *Pending[T]) Resolved() bool {
	return p.cell.state.Load() == stateResolved
}

// Await blocks until the operation resolves or ctx is done. When ctx ends
// first the operation is abandoned and every later callback is dropped. The
// partner operation itself is not cancelled.
func (p *Pending[T]) Await(ctx context.Context) (T, error) {
	var zero T
	c := p.cell

	if c.state.Load() == stateAbandoned {
		return zero, ErrAbandoned
	}

	select {
	case <-c.done:
		return c.result.Value, c.result.Error
	case <-ctx.Done():
	}

	if c.abandon() {
		return zero, fmt.Errorf("%w: %s: %w", ErrAbandoned, c.key, ctx.Err())
	}
	if c.state.Load() == stateResolved {
		<-c.done
		return c.result.Value, c.result.Error
	}
	return zero, fmt.Errorf("%w: %s: %w", ErrAbandoned, c.key, ctx.Err())
}
