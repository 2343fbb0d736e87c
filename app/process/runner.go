package process

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const defaultWaitDelay = 5 * time.Second

// Command is one invocation of an external program.
type Command struct {
	Name    string
	Path    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner spawns child processes and classifies their stderr output.
type Runner struct {
	benignMarkers []string
	waitDelay     time.Duration
}

func NewRunner(benignMarkers []string) *Runner {
	markers := make([]string, 0, len(benignMarkers))
	for _, marker := range benignMarkers {
		if marker = strings.TrimSpace(marker); marker != "" {
			markers = append(markers, strings.ToLower(marker))
		}
	}

	return &Runner{
		benignMarkers: markers,
		waitDelay:     defaultWaitDelay,
	}
}

// Run executes cmd and waits for it. Only a launch fault, a non-zero exit or
// an exceeded timeout is an error; stderr output alone is logged. The child is
// killed when ctx is canceled or the timeout elapses.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	// Bounds the wait for pipes held open by grandchildren after a kill
	c.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	name := cmd.Name
	if name == "" {
		name = cmd.Path
	}

	slog.Info("Running process", "name", name, "command", cmd.String(), "timeout", cmd.Timeout)

	started := time.Now()
	if err := c.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, &Error{Kind: KindTimeout, Command: cmd.String(), Code: -1, Err: ctxErr}
			}
			return nil, ctxErr
		}
		return nil, &Error{Kind: KindLaunchFailed, Command: cmd.String(), Code: -1, Err: err}
	}

	err := c.Wait()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return result, &Error{Kind: KindTimeout, Command: cmd.String(), Code: -1, Stderr: strings.TrimSpace(result.Stderr), Err: ctxErr}
			}
			return result, ctxErr
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &Error{Kind: KindNonZeroExit, Command: cmd.String(), Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(result.Stderr), Err: err}
		}
		return result, &Error{Kind: KindLaunchFailed, Command: cmd.String(), Code: -1, Stderr: strings.TrimSpace(result.Stderr), Err: err}
	}

	r.reportStderr(name, result.Stderr)

	slog.Info("Process completed", "name", name, "duration", result.Duration)

	return result, nil
}

func (r *Runner) reportStderr(name, stderr string) {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return
	}
	if r.IsBenign(stderr) {
		slog.Debug("Process stderr", "name", name, "stderr", stderr)
		return
	}
	slog.Warn("Process wrote to stderr", "name", name, "stderr", stderr)
}

// IsBenign reports whether stderr contains one of the allow-listed markers.
func (r *Runner) IsBenign(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range r.benignMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
