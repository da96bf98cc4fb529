// Package harper runs the style linter in a worker and correlates its
// responses with requests.
//
// The broker and the worker exchange Content-Length framed msgpack bodies.
// Each request carries an id; responses may arrive in any order.
package harper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iw2rmb/proofline/checker"
	"github.com/iw2rmb/proofline/issue"
)

const DefaultTimeout = 5 * time.Second

var (
	ErrTimeout = errors.New("harper: request timed out")
	ErrClosed  = errors.New("harper: broker closed")
)

type Options struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Broker sends lint requests over conn and routes responses by id.
type Broker struct {
	conn    io.ReadWriteCloser
	timeout time.Duration
	log     *slog.Logger

	nextID atomic.Uint64
	wmu    sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan response
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

var _ checker.Checker = (*Broker)(nil)

// NewBroker starts reading responses from conn. The broker owns conn.
func NewBroker(conn io.ReadWriteCloser, opt Options) *Broker {
	opt = opt.withDefaults()
	b := &Broker{
		conn:    conn,
		timeout: opt.Timeout,
		log:     opt.Logger,
		pending: make(map[uint64]chan response),
		done:    make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *Broker) Name() string { return issue.SourceHarper }

// Check implements checker.Checker.
func (b *Broker) Check(ctx context.Context, text string) (checker.Results, error) {
	tone, terminology, err := b.Lint(ctx, text)
	if err != nil {
		return checker.Results{}, err
	}
	return checker.Results{Tone: tone, Terminology: terminology}, nil
}

// Lint sends text to the worker and waits for the matching response.
func (b *Broker) Lint(ctx context.Context, text string) (tone, terminology []issue.LintFinding, err error) {
	id := b.nextID.Add(1)
	ch := make(chan response, 1)

	b.mu.Lock()
	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return nil, nil, err
	}
	b.pending[id] = ch
	b.mu.Unlock()
	defer b.forget(id)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	// The write runs on its own goroutine: a worker that stops reading
	// blocks it, and the deadline must still hold.
	sent := make(chan error, 1)
	go func() { sent <- b.send(request{ID: id, Text: text}) }()

	for {
		select {
		case err := <-sent:
			if err != nil {
				return nil, nil, fmt.Errorf("harper: send request %d: %w", id, err)
			}
			sent = nil
		case resp := <-ch:
			if resp.Error != "" {
				return nil, nil, fmt.Errorf("harper: worker: %s", resp.Error)
			}
			return nonNil(resp.Tone), nonNil(resp.Terminology), nil
		case <-timer.C:
			b.log.Warn("harper request timed out", "id", id, "timeout", b.timeout)
			return nil, nil, ErrTimeout
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-b.done:
			return nil, nil, b.closedErr()
		}
	}
}

// send writes req unless its caller has already given up waiting.
func (b *Broker) send(req request) error {
	b.wmu.Lock()
	defer b.wmu.Unlock()
	b.mu.Lock()
	_, waiting := b.pending[req.ID]
	b.mu.Unlock()
	if !waiting {
		b.log.Debug("harper request abandoned before send", "id", req.ID)
		return nil
	}
	return writeFrame(b.conn, req)
}

// Pending returns the number of requests awaiting a response.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close stops the broker and closes the transport. Waiting requests fail
// with ErrClosed.
func (b *Broker) Close() error {
	b.shutdown(ErrClosed)
	return b.conn.Close()
}

// Done is closed once the broker stops.
func (b *Broker) Done() <-chan struct{} { return b.done }

func (b *Broker) readLoop() {
	r := bufio.NewReader(b.conn)
	for {
		var resp response
		if err := readFrame(r, &resp); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				b.log.Warn("harper transport failed", "err", err)
			}
			b.shutdown(ErrClosed)
			return
		}
		b.mu.Lock()
		ch, ok := b.pending[resp.ID]
		delete(b.pending, resp.ID)
		b.mu.Unlock()
		if !ok {
			b.log.Debug("harper response without waiter", "id", resp.ID)
			continue
		}
		ch <- resp
	}
}

func (b *Broker) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

func (b *Broker) shutdown(err error) {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		close(b.done)
	})
}

func (b *Broker) closedErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	return ErrClosed
}

func nonNil(in []issue.LintFinding) []issue.LintFinding {
	if in == nil {
		return []issue.LintFinding{}
	}
	return in
}
