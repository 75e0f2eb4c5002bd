package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Command is a subprocess invocation.
type Command struct {
	Args []string
	Dir  string
	Env  map[string]string // overrides on top of the current environment
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Executor runs subprocesses on behalf of a builder.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ExitError reports a subprocess that exited with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string // tail of the captured standard error, if any
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: process exited with an error: %d", strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

const stderrTail = 4096

// ExecExecutor runs commands with os/exec. Child output goes to Stdout and
// Stderr (os.Stdout and os.Stderr when nil).
type ExecExecutor struct {
	Logger Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecExecutor returns an executor that logs every command it starts.
func NewExecExecutor(logger Logger) *ExecExecutor {
	return &ExecExecutor{Logger: logger}
}

func (e *ExecExecutor) Execute(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("execute: empty command")
	}
	if e.Logger != nil {
		e.Logger.Infof("%s", c)
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env)
	}

	stdout, stderr := e.Stdout, e.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	var tail tailBuffer
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, &tail)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{
				Args:   append([]string(nil), c.Args...),
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(tail.String()),
			}
		}
		return err
	}
	return nil
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if extra := t.buf.Len() - stderrTail; extra > 0 {
		t.buf.Next(extra)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}

// mergeEnv overlays override on base and returns a sorted KEY=VALUE list.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
