// Package process runs external tools, either capturing their output or handing them the terminal, and classifies
// their failures as either "could not be started" or "exited unsuccessfully".
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/alessio/shellescape"
	"go.uber.org/zap"
)

// DefaultWaitDelay is how long a child gets after an interrupt before it is killed.
var DefaultWaitDelay = 10 * time.Second

// SpawnError means the child process could not be started at all, e.g. the binary is not on PATH.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError means the child process ran but did not exit successfully. Stderr is only populated when the output was
// captured.
type ExitError struct {
	Name   string
	Code   int
	Stderr []byte
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s was terminated by a signal", e.Name)
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

type Command struct {
	Name string
	Args []string
	// Streams used by Run; nil means the corresponding stream of this process.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Logger defaults to zap.L().
	Logger *zap.Logger
}

func New(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

func (c *Command) WithLogger(logger *zap.Logger) *Command {
	c.Logger = logger
	return c
}

// String gives the command line in a form that could be pasted into a shell.
func (c *Command) String() string {
	return shellescape.QuoteCommand(append([]string{c.Name}, c.Args...))
}

// Output runs the command with stdout and stderr captured, returning stdout. A non-zero exit gives an *ExitError
// containing the captured stderr.
func (c *Command) Output(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := c.build(ctx)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := c.execute(cmd)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		exitErr.Stderr = stderr.Bytes()
	}
	return stdout.Bytes(), err
}

// Run runs the command attached to the configured streams, by default those of the current process.
func (c *Command) Run(ctx context.Context) error {
	cmd := c.build(ctx)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	return c.execute(cmd)
}

func (c *Command) build(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	// Give the child a chance to clean up (e.g. save resume state) before it gets killed.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = DefaultWaitDelay
	return cmd
}

func (c *Command) execute(cmd *exec.Cmd) error {
	log := c.logger()
	log.Debug("starting process", zap.String("command", c.String()))
	if err := cmd.Start(); err != nil {
		return &SpawnError{Name: c.Name, Err: err}
	}
	start := time.Now()
	err := cmd.Wait()
	log = log.With(zap.Int("pid", cmd.Process.Pid), zap.Duration("elapsed", time.Since(start)))
	if err == nil {
		log.Debug("process exited successfully")
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Debug("process failed", zap.Int("status", exitErr.ExitCode()))
		return &ExitError{Name: c.Name, Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("waiting for %s: %w", c.Name, err)
}

func (c *Command) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger.Named("process")
	}
	return zap.L().Named("process")
}
