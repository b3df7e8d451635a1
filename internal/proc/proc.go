// Package proc runs external commands (git, cmake) for the orchestrator.
//
// A nonzero exit of the child is not an error at this layer: it is reported
// through ExitStatus and callers decide how to classify it.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/qiniu/x/log"
)

// Command describes one external command invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working context the child starts in. Empty means the
	// process working directory.
	Dir string
	// Env overrides entries of the inherited process environment.
	Env map[string]string
}

// String renders the command line the way it is echoed before execution.
func (c Command) String() string {
	var b strings.Builder
	for _, k := range sortedKeys(c.Env) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quote(c.Env[k]))
		b.WriteByte(' ')
	}
	b.WriteString(quote(c.Name))
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	return b.String()
}

// ExitStatus is the exit code of a finished child process.
type ExitStatus struct {
	Code int
}

// OK reports whether the child exited successfully.
func (s ExitStatus) OK() bool { return s.Code == 0 }

// Err returns nil for a successful exit and an *ExitError otherwise.
func (s ExitStatus) Err() error {
	if s.OK() {
		return nil
	}
	return &ExitError{Code: s.Code}
}

// ExitError reports a nonzero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Check folds the results of Runner.Run into a single error.
func Check(status ExitStatus, err error) error {
	if err != nil {
		return err
	}
	return status.Err()
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd, streaming its output to the operator.
	// The returned error is non-nil only if the command could not be started.
	Run(ctx context.Context, cmd Command) (ExitStatus, error)

	// Output executes cmd and returns its trimmed standard output.
	Output(ctx context.Context, cmd Command) (string, ExitStatus, error)
}

type execRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// Option configures the runner returned by New.
type Option func(*execRunner)

// WithStdout sets where child standard output is streamed.
func WithStdout(w io.Writer) Option {
	return func(r *execRunner) {
		r.stdout = w
	}
}

// WithStderr sets where child standard error is streamed.
func WithStderr(w io.Writer) Option {
	return func(r *execRunner) {
		r.stderr = w
	}
}

// New returns a Runner backed by os/exec.
func New(opts ...Option) Runner {
	r := &execRunner{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *execRunner) Run(ctx context.Context, cmd Command) (ExitStatus, error) {
	log.Infof("Execute: %s", cmd)
	c := r.command(ctx, cmd)
	c.Stdout = r.stdout
	c.Stderr = r.stderr
	return exitStatus(c.Run())
}

func (r *execRunner) Output(ctx context.Context, cmd Command) (string, ExitStatus, error) {
	log.Infof("Execute: %s", cmd)
	c := r.command(ctx, cmd)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	status, err := exitStatus(c.Run())
	if msg := strings.TrimSpace(stderr.String()); msg != "" && !status.OK() {
		log.Debugf("%s: %s", cmd.Name, msg)
	}
	return strings.TrimSpace(stdout.String()), status, err
}

func (r *execRunner) command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		c.Dir = cmd.Dir
	}
	if len(cmd.Env) > 0 {
		c.Env = MergeEnv(os.Environ(), cmd.Env)
	}
	return c
}

func exitStatus(err error) (ExitStatus, error) {
	if err == nil {
		return ExitStatus{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the child was terminated by a signal.
		return ExitStatus{Code: exitErr.ExitCode()}, nil
	}
	return ExitStatus{Code: -1}, err
}

// MergeEnv returns base with override applied. Keys in override take
// precedence; the result is sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(override))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	out := make([]string, 0, len(envMap))
	for _, k := range sortedKeys(envMap) {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'\\$") {
		return strconv.Quote(s)
	}
	return s
}
