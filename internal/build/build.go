// Package build configures, builds and installs source trees with CMake.
package build

import (
	"context"
	"fmt"
	"os"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/cmake"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/env"
	"github.com/rad/radboot/internal/proc"
)

// Stage names the build sub-action that failed.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageBuild     Stage = "build"
)

// Error reports a failed build.
type Error struct {
	Name  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("build %s: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultConfig is the configuration every build is installed in.
const DefaultConfig = "Release"

type Builder struct {
	runner proc.Runner
	stack  *dirstack.Stack
	config string
	cmake  string
}

// Option configures a Builder.
type Option func(*Builder)

// WithConfig overrides the build configuration.
func WithConfig(name string) Option {
	return func(b *Builder) {
		b.config = name
	}
}

// WithCMakePath sets a custom cmake executable path.
func WithCMakePath(path string) Option {
	return func(b *Builder) {
		b.cmake = path
	}
}

func NewBuilder(runner proc.Runner, stack *dirstack.Stack, opts ...Option) *Builder {
	b := &Builder{runner: runner, stack: stack, config: DefaultConfig}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildAndInstall configures spec's source tree into its build tree and
// builds the install target into its install tree. Nothing is cleaned up
// on failure; re-running converges because the sources are pinned.
func (b *Builder) BuildAndInstall(ctx context.Context, spec *component.BuildSpec, layout env.Layout) error {
	c := cmake.New(b.runner, layout.SourceDir(spec.SourceDir()), layout.BuildDir(spec.Name), layout.InstallDir(spec.Name))
	if b.cmake != "" {
		c.Executable(b.cmake)
	}
	c.BuildType(b.config)
	for _, d := range spec.Definitions {
		c.DefineTyped(d.Name, d.Type, d.Value)
	}
	for k, v := range Environment(spec, layout) {
		c.Env(k, v)
	}

	return b.stack.Do(layout.Imported(), func() error {
		dir := b.stack.Current()
		if err := c.Configure(ctx, dir); err != nil {
			return &Error{Name: spec.Name, Stage: StageConfigure, Err: err}
		}
		if err := c.Build(ctx, dir, "--target", "install"); err != nil {
			return &Error{Name: spec.Name, Stage: StageBuild, Err: err}
		}
		log.Infof("%s: installed to %s", spec.Name, c.OutputDir())
		return nil
	})
}

// Environment returns the variables injected into spec's build: the
// static Env entries plus every EnvFromInstall reference resolved to the
// referenced build's install tree.
func Environment(spec *component.BuildSpec, layout env.Layout) map[string]string {
	vars := make(map[string]string, len(spec.Env)+len(spec.EnvFromInstall))
	for k, v := range spec.Env {
		vars[k] = v
	}
	for k, ref := range spec.EnvFromInstall {
		dir := layout.InstallDir(ref)
		if _, err := os.Stat(dir); err != nil {
			log.Warnf("%s: %s=%s but %s is not installed", spec.Name, k, dir, ref)
		}
		vars[k] = dir
	}
	return vars
}
