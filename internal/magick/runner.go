package magick

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
)

// ErrorKind classifies a failed tool invocation.
type ErrorKind int

const (
	// KindExit means the process ran and exited non-zero.
	KindExit ErrorKind = iota
	// KindTimeout means the process was killed after exceeding its timeout.
	KindTimeout
	// KindOverflow means the process was killed after exceeding the output cap.
	KindOverflow
	// KindStart means the process could not be started.
	KindStart
)

func (k ErrorKind) String() string {
	switch k {
	case KindExit:
		return "exit"
	case KindTimeout:
		return "timeout"
	case KindOverflow:
		return "overflow"
	case KindStart:
		return "start"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// CommandError is returned for any failed invocation of the external tool.
type CommandError struct {
	Kind     ErrorKind
	Command  string
	Stream   string
	Limit    int64
	Timeout  time.Duration
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("command timed out after %v: %s", e.Timeout, e.Command)
	case KindOverflow:
		return fmt.Sprintf("%s exceeded output limit (%d bytes): %s", e.Stream, e.Limit, e.Command)
	case KindStart:
		return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
	default:
		if e.Stderr != "" {
			return e.Stderr
		}
		return fmt.Sprintf("command failed (exit %d): %s", e.ExitCode, e.Command)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a tool timeout.
func IsTimeout(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Kind == KindTimeout
}

// IsOverflow reports whether err is a tool output overflow.
func IsOverflow(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce) && ce.Kind == KindOverflow
}

var errOutputLimit = errors.New("output limit exceeded")

// cappedBuffer collects one output stream and trips once the limit is
// passed. Writes arrive from a single exec copy goroutine.
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int64
	exceeded atomic.Bool
	onExceed func()
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if int64(c.buf.Len())+int64(len(p)) > c.limit {
		if !c.exceeded.Swap(true) {
			c.onExceed()
		}
		return 0, errOutputLimit
	}
	return c.buf.Write(p)
}

// Runner executes the tool with a wall-clock timeout and a per-stream output
// cap. A breach of either kills the process.
type Runner struct {
	Binary    string
	Timeout   time.Duration
	MaxOutput int64
}

// Run executes the binary with args and returns its stdout.
func (r *Runner) Run(ctx context.Context, args ...string) ([]byte, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	// Children that inherit the pipes must not keep Wait blocked after a kill
	cmd.WaitDelay = time.Second

	stdout := &cappedBuffer{limit: r.MaxOutput, onExceed: cancel}
	stderr := &cappedBuffer{limit: r.MaxOutput, onExceed: cancel}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	command := r.describe(args)

	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Kind: KindStart, Command: command, Err: err}
	}

	err := cmd.Wait()
	switch {
	case stdout.exceeded.Load():
		return nil, &CommandError{Kind: KindOverflow, Command: command, Stream: "stdout", Limit: r.MaxOutput, Err: errOutputLimit}
	case stderr.exceeded.Load():
		return nil, &CommandError{Kind: KindOverflow, Command: command, Stream: "stderr", Limit: r.MaxOutput, Err: errOutputLimit}
	case err == nil:
		return stdout.buf.Bytes(), nil
	case parent.Err() != nil:
		return nil, fmt.Errorf("%s: %w", command, parent.Err())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, &CommandError{Kind: KindTimeout, Command: command, Timeout: r.Timeout, Err: context.DeadlineExceeded}
	}

	ce := &CommandError{
		Kind:     KindExit,
		Command:  command,
		Stderr:   strings.TrimSpace(stderr.buf.String()),
		ExitCode: -1,
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		ce.ExitCode = exitErr.ExitCode()
	}
	return nil, ce
}

func (r *Runner) describe(args []string) string {
	return strings.TrimSpace(r.Binary + " " + strings.Join(args, " "))
}
