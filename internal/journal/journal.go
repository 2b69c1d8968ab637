// Package journal reads log lines for a systemd unit by running journalctl.
//
// go-systemd's sdjournal bindings need cgo; running the journalctl binary
// keeps the build pure Go, which the rest of the project (modernc sqlite)
// already commits to.
package journal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Querier is the log source interface consumed by the reconciler and the
// metric sampler. Implementations must enforce a hard timeout; a failed or
// timed-out query is reported as a *QueryError.
type Querier interface {
	// Since returns unit log lines emitted at or after the given journald
	// time expression, oldest first.
	Since(ctx context.Context, since string) ([]string, error)

	// Tail returns the newest n unit log lines, oldest first.
	Tail(ctx context.Context, n int) ([]string, error)
}

// QueryError reports a failed or timed-out journal query. Callers treat it
// as "skip this tick", not as a fatal condition.
type QueryError struct {
	Args []string
	Err  error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("journalctl %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Client queries journald for a single unit.
type Client struct {
	unit    string
	timeout time.Duration
}

// NewClient creates a journal client for the given systemd unit. Every
// query is bounded by timeout regardless of the caller's context.
func NewClient(unit string, timeout time.Duration) *Client {
	return &Client{unit: unit, timeout: timeout}
}

// Since implements Querier.
func (c *Client) Since(ctx context.Context, since string) ([]string, error) {
	return c.run(ctx, "--since", since)
}

// Tail implements Querier.
func (c *Client) Tail(ctx context.Context, n int) ([]string, error) {
	return c.run(ctx, "-n", strconv.Itoa(n))
}

func (c *Client) run(ctx context.Context, extra ...string) ([]string, error) {
	args := []string{"-u", c.unit, "--no-pager", "-q", "-o", "short-iso"}
	args = append(args, extra...)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "journalctl", args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &QueryError{Args: args, Err: err}
	}
	return splitLines(out.String()), nil
}

// splitLines splits command output into lines, dropping the trailing
// newline. Empty output yields nil rather than a single empty line.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
