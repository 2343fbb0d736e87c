package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess is not a real test. It is re-executed by the tests below
// as the child process.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("HELPER_MODE") {
	case "ok":
		fmt.Println("Successfully saved 3 unique items.")
	case "notice":
		fmt.Println("done")
		fmt.Fprintln(os.Stderr, "NOTICE: feed returned fewer items than requested")
	case "warning":
		fmt.Println("done")
		fmt.Fprintln(os.Stderr, "Image scrape failure for https://example.com")
	case "fail":
		fmt.Fprintln(os.Stderr, "Traceback: boom")
		os.Exit(1)
	case "exit3":
		os.Exit(3)
	case "sleep":
		time.Sleep(30 * time.Second)
	}
	os.Exit(0)
}

func helperCommand(mode string, timeout time.Duration) Command {
	return Command{
		Name:    "helper-" + mode,
		Path:    os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		Timeout: timeout,
	}
}

func TestRunnerCapturesOutput(t *testing.T) {
	runner := NewRunner([]string{"notice"})

	result, err := runner.Run(context.Background(), helperCommand("ok", 30*time.Second))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(result.Stdout, "Successfully saved 3 unique items.") {
		t.Errorf("Expected stdout to be captured, got %q", result.Stdout)
	}
	if result.Stderr != "" {
		t.Errorf("Expected empty stderr, got %q", result.Stderr)
	}
}

func TestRunnerStderrDoesNotFail(t *testing.T) {
	runner := NewRunner([]string{"notice"})

	for _, mode := range []string{"notice", "warning"} {
		result, err := runner.Run(context.Background(), helperCommand(mode, 30*time.Second))
		if err != nil {
			t.Fatalf("mode %s: expected no error, got: %v", mode, err)
		}
		if result.Stderr == "" {
			t.Errorf("mode %s: expected stderr to be captured", mode)
		}
	}
}

func TestRunnerIsBenign(t *testing.T) {
	runner := NewRunner([]string{" Notice ", "", "DeprecationWarning"})

	tests := []struct {
		stderr   string
		expected bool
	}{
		{"notice: using cached feed", true},
		{"NOTICE", true},
		{"lib.py:3: DeprecationWarning: x", true},
		{"Traceback (most recent call last)", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := runner.IsBenign(tt.stderr); got != tt.expected {
			t.Errorf("IsBenign(%q): expected %v, got %v", tt.stderr, tt.expected, got)
		}
	}
}

func TestRunnerNonZeroExit(t *testing.T) {
	runner := NewRunner(nil)

	result, err := runner.Run(context.Background(), helperCommand("fail", 30*time.Second))
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("Expected ErrNonZeroExit, got %v", err)
	}

	var procErr *Error
	if !errors.As(err, &procErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if procErr.Code != 1 {
		t.Errorf("Expected exit code 1, got %d", procErr.Code)
	}
	if !strings.Contains(procErr.Stderr, "boom") {
		t.Errorf("Expected stderr in error, got %q", procErr.Stderr)
	}
	if result == nil || !strings.Contains(result.Stderr, "boom") {
		t.Error("Expected result with captured stderr alongside the error")
	}

	_, err = runner.Run(context.Background(), helperCommand("exit3", 30*time.Second))
	if !errors.As(err, &procErr) || procErr.Code != 3 {
		t.Errorf("Expected exit code 3, got %v", err)
	}
}

func TestRunnerLaunchFailed(t *testing.T) {
	runner := NewRunner(nil)

	_, err := runner.Run(context.Background(), Command{Path: "/nonexistent/flipnews-crawler"})
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("Expected ErrLaunchFailed, got %v", err)
	}
	if errors.Is(err, ErrNonZeroExit) || errors.Is(err, ErrTimeout) {
		t.Error("Launch failure must not match other kinds")
	}
}

func TestRunnerTimeoutKillsChild(t *testing.T) {
	runner := NewRunner(nil)

	started := time.Now()
	_, err := runner.Run(context.Background(), helperCommand("sleep", 200*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Errorf("Expected child to be killed promptly, took %v", elapsed)
	}
}

func TestRunnerCancellation(t *testing.T) {
	runner := NewRunner(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	started := time.Now()
	_, err := runner.Run(ctx, helperCommand("sleep", 0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Errorf("Expected child to be killed promptly, took %v", elapsed)
	}
}

func TestRunnerExpiredContextBeforeStart(t *testing.T) {
	runner := NewRunner(nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := runner.Run(ctx, helperCommand("ok", 0))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if errors.Is(err, ErrLaunchFailed) {
		t.Error("Expired deadline must not be reported as a launch failure")
	}

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()

	_, err = runner.Run(canceled, helperCommand("ok", 0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
