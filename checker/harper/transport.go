package harper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// conn joins a reader and a writer into one transport.
type conn struct {
	io.Reader
	io.Writer
	close func() error
}

func (c *conn) Close() error { return c.close() }

// NewInProcess runs Serve with l on an in-memory pipe and returns a broker
// connected to it.
func NewInProcess(l Linter, opt Options) *Broker {
	opt = opt.withDefaults()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		err := Serve(ctx, reqR, respW, l, ServeOptions{Logger: opt.Logger})
		if err != nil {
			opt.Logger.Warn("in-process harper worker stopped", "err", err)
		}
		respW.CloseWithError(io.EOF)
	}()

	return NewBroker(&conn{
		Reader: respR,
		Writer: reqW,
		close: func() error {
			cancel()
			reqW.Close()
			respR.Close()
			<-served
			return nil
		},
	}, opt)
}

// ProcessOptions configures a worker subprocess.
type ProcessOptions struct {
	Options
	// Stderr receives the worker's diagnostics. Nil means os.Stderr.
	Stderr io.Writer
	// Env is appended to the current environment.
	Env []string
	// WaitDelay bounds how long Close waits before killing the worker.
	WaitDelay time.Duration
}

// StartProcess launches command and returns a broker speaking to it over
// stdin and stdout. Cancelling ctx kills the worker.
func StartProcess(ctx context.Context, command []string, opt ProcessOptions) (*Broker, error) {
	if len(command) == 0 {
		return nil, errors.New("harper: empty worker command")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Env = append(os.Environ(), opt.Env...)
	cmd.Stderr = opt.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = opt.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("harper: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("harper: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("harper: start %s: %w", command[0], err)
	}

	o := opt.Options.withDefaults()
	o.Logger.Info("harper worker started", "pid", cmd.Process.Pid, "command", command[0])
	return NewBroker(&conn{
		Reader: stdout,
		Writer: stdin,
		close: func() error {
			// Closing stdin lets the worker drain and exit on EOF.
			stdin.Close()
			err := cmd.Wait()
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
				return nil
			}
			return err
		},
	}, o), nil
}
