// Package orchestrator drives one bootstrap run: it resolves the requested
// components, runs their steps in order, generates project files and
// always returns to the working context it started from.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/acquire"
	"github.com/rad/radboot/internal/build"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/env"
	"github.com/rad/radboot/internal/projgen"
)

// Exit statuses reported by Driver.Report.
const (
	StatusOK     = 0
	StatusFailed = 255 // -1 as an 8-bit exit code
)

// State is a phase of a run.
type State int

const (
	Init State = iota
	Running
	Unwinding
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Running:
		return "running"
	case Unwinding:
		return "unwinding"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Acquirer ensures a pinned source tree exists under rootDir.
type Acquirer interface {
	Ensure(ctx context.Context, spec component.DependencySpec, rootDir string) error
}

// Builder configures, builds and installs one source tree.
type Builder interface {
	BuildAndInstall(ctx context.Context, spec *component.BuildSpec, layout env.Layout) error
}

// Generator generates the project's own build files.
type Generator interface {
	Generate(ctx context.Context) error
}

// Options wires a Driver.
type Options struct {
	Registry  *component.Registry
	Layout    env.Layout
	Stack     *dirstack.Stack
	Acquirer  Acquirer
	Builder   Builder
	Generator Generator

	// Preflight, if set, runs before the first step with the resolved
	// steps.
	Preflight func(ctx context.Context, steps []component.Step) error
}

// Driver runs the bootstrap state machine. A Driver is not safe for
// concurrent use; every step shares its working context stack.
type Driver struct {
	opts     Options
	state    State
	start    string
	warnings []*component.UnknownComponentWarning
}

// New returns a Driver in the Init state.
func New(opts Options) *Driver {
	return &Driver{opts: opts}
}

// State returns the current phase.
func (d *Driver) State() State { return d.state }

// Warnings returns the unknown component names of the last run.
func (d *Driver) Warnings() []*component.UnknownComponentWarning { return d.warnings }

// Execute runs requested and returns the process exit status.
func (d *Driver) Execute(ctx context.Context, requested []string) int {
	return d.Report(d.Run(ctx, requested))
}

// Run processes the requested components. Whatever happens, including a
// panic inside a step, the working context is back at its starting value
// when Run returns.
func (d *Driver) Run(ctx context.Context, requested []string) (err error) {
	stack := d.opts.Stack
	d.state = Init
	d.start = stack.Current()
	d.warnings = nil

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("orchestrator: panic: %v", r)
		}
		d.unwind()
	}()

	if err := stack.Enter(d.opts.Layout.Root); err != nil {
		return err
	}
	d.state = Running

	steps, warnings := d.opts.Registry.Resolve(requested)
	for _, w := range warnings {
		log.Warn(w.Error())
	}
	d.warnings = warnings

	if d.opts.Preflight != nil {
		if err := d.opts.Preflight(ctx, steps); err != nil {
			return err
		}
	}
	if len(steps) > 0 {
		if _, err := d.opts.Layout.EnsureImported(); err != nil {
			return err
		}
	}
	for i, step := range steps {
		log.Infof("[%d/%d] %s", i+1, len(steps), step)
		if err := d.runStep(ctx, step); err != nil {
			return err
		}
	}
	if err := d.opts.Generator.Generate(ctx); err != nil {
		return err
	}

	if err := stack.Leave(); err != nil {
		return err
	}
	if n := stack.Depth(); n != 0 {
		return fmt.Errorf("orchestrator: %d working contexts never left", n)
	}
	return nil
}

func (d *Driver) runStep(ctx context.Context, step component.Step) error {
	switch step.Kind {
	case component.Acquire:
		return d.opts.Acquirer.Ensure(ctx, *step.Dependency, d.opts.Layout.Imported())
	case component.Build:
		return d.opts.Builder.BuildAndInstall(ctx, step.Build, d.opts.Layout)
	}
	return fmt.Errorf("orchestrator: unknown step kind %v", step.Kind)
}

// unwind makes the starting context current again. It does not rely on
// the stack being balanced.
func (d *Driver) unwind() {
	d.state = Unwinding
	if n := d.opts.Stack.Depth(); n != 0 {
		log.Debugf("unwinding %d working contexts", n)
	}
	d.opts.Stack.Reset(d.start)
	d.state = Done
}

// Report logs err, if any, and returns the matching exit status.
func (d *Driver) Report(err error) int {
	if err == nil {
		log.Info("bootstrap complete")
		return StatusOK
	}
	log.Errorf("%s: %v", Kind(err), err)
	return StatusFailed
}

// Kind classifies err for reporting.
func Kind(err error) string {
	var (
		pathErr  *dirstack.PathError
		acqErr   *acquire.Error
		buildErr *build.Error
		cfgErr   *config.Error
		genErr   *projgen.Error
	)
	switch {
	case errors.Is(err, dirstack.ErrStackUnderflow):
		return "StackUnderflow"
	case errors.As(err, &pathErr):
		return "PathError"
	case errors.As(err, &acqErr):
		return "AcquisitionError"
	case errors.As(err, &buildErr):
		return "BuildError"
	case errors.As(err, &cfgErr):
		return "ConfigError"
	case errors.As(err, &genErr):
		return "GenerateError"
	}
	return "Error"
}
