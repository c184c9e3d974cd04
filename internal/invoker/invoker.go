// Package invoker wraps the external image-processing executable behind a
// small CLI client. Invocations run headless against a staged task directory
// and must produce the outputs their stage declares.
package invoker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"platepipe/internal/services"
)

var commandContext = exec.CommandContext

// Invocation names one task run: the pipeline to execute, the staged inputs,
// and the outputs the stage declares.
type Invocation struct {
	Stage     string
	GroupKey  string
	Pipeline  string
	DataFile  string
	ImageDir  string
	OutputDir string
	// OutputGlob is matched against OutputDir after the run; zero matches
	// fail the invocation.
	OutputGlob string
}

// TaskInvocationError reports a failed tool run for one task unit. It
// classifies as an external tool failure.
type TaskInvocationError struct {
	Stage    string
	GroupKey string
	Err      error
}

func (e *TaskInvocationError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.GroupKey, e.Err)
}

func (e *TaskInvocationError) Unwrap() []error {
	return []error{services.ErrExternalTool, e.Err}
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithTimeout bounds each invocation's wall-clock time.
func WithTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		c.timeout = timeout
	}
}

// CLI wraps the image-processing command line.
type CLI struct {
	binary  string
	timeout time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "cellprofiler"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Run launches one headless invocation and returns the produced output
// paths. Tool log lines stream through the output callback as they arrive.
func (c *CLI) Run(ctx context.Context, inv Invocation, output func(string)) ([]string, error) {
	if inv.Pipeline == "" {
		return nil, errors.New("pipeline path required")
	}
	if inv.DataFile == "" {
		return nil, errors.New("data file required")
	}
	if inv.OutputDir == "" {
		return nil, errors.New("output directory required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"-c", "-r", "-p", inv.Pipeline, "--data-file", inv.DataFile, "-o", inv.OutputDir}
	if inv.ImageDir != "" {
		args = append(args, "-i", inv.ImageDir)
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, &TaskInvocationError{Stage: inv.Stage, GroupKey: inv.GroupKey, Err: err}
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if output != nil {
			output(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return nil, fmt.Errorf("read tool output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		return nil, &TaskInvocationError{Stage: inv.Stage, GroupKey: inv.GroupKey, Err: err}
	}

	return c.verifyOutputs(inv)
}

// verifyOutputs enforces the stage's output declaration. A run that exits
// zero but writes nothing matching the glob still fails.
func (c *CLI) verifyOutputs(inv Invocation) ([]string, error) {
	if inv.OutputGlob == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(inv.OutputDir, inv.OutputGlob))
	if err != nil {
		return nil, fmt.Errorf("output glob %q: %w", inv.OutputGlob, err)
	}
	if len(matches) == 0 {
		return nil, &TaskInvocationError{
			Stage:    inv.Stage,
			GroupKey: inv.GroupKey,
			Err:      fmt.Errorf("no outputs matching %q in %s", inv.OutputGlob, inv.OutputDir),
		}
	}
	return matches, nil
}
