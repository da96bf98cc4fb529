package harper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iw2rmb/proofline/issue"
)

// Linter produces tone and terminology findings for text.
type Linter interface {
	Lint(ctx context.Context, text string) (tone, terminology []issue.LintFinding, err error)
}

// ServeOptions configures the worker side.
type ServeOptions struct {
	// Concurrency bounds in-flight lint calls. Zero means 4.
	Concurrency int
	Logger      *slog.Logger
}

// Serve reads requests from r, lints them with l and writes responses to w
// until r reaches EOF or ctx is cancelled. Requests are processed
// concurrently, so responses may be written out of order.
func Serve(ctx context.Context, r io.Reader, w io.Writer, l Linter, opt ServeOptions) error {
	if opt.Concurrency <= 0 {
		opt.Concurrency = 4
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opt.Concurrency)

	var wmu sync.Mutex
	br := bufio.NewReader(r)
	var readErr error
	for {
		if gctx.Err() != nil {
			break
		}
		var req request
		if err := readFrame(br, &req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				readErr = err
			}
			break
		}
		g.Go(func() error {
			resp := lint(gctx, l, req)
			wmu.Lock()
			defer wmu.Unlock()
			if err := writeFrame(w, resp); err != nil {
				return fmt.Errorf("harper: write response %d: %w", req.ID, err)
			}
			log.Debug("harper lint", "id", req.ID, "tone", len(resp.Tone), "terminology", len(resp.Terminology))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return readErr
}

func lint(ctx context.Context, l Linter, req request) (resp response) {
	resp.ID = req.ID
	defer func() {
		if r := recover(); r != nil {
			resp = response{ID: req.ID, Error: fmt.Sprint("linter panic: ", r)}
		}
	}()
	tone, terminology, err := l.Lint(ctx, req.Text)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Tone = tone
	resp.Terminology = terminology
	return resp
}
