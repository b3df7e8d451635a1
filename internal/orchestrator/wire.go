package orchestrator

import (
	"context"

	"github.com/rad/radboot/internal/acquire"
	"github.com/rad/radboot/internal/build"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/env"
	"github.com/rad/radboot/internal/proc"
	"github.com/rad/radboot/internal/projgen"
	"github.com/rad/radboot/internal/toolchain"
	"github.com/rad/radboot/internal/vcs"
)

// Setup configures NewFromConfig.
type Setup struct {
	Config   *config.Config
	Registry *component.Registry
	Runner   proc.Runner
	// Start is the working context the run begins and ends in.
	Start string
	// CheckTools enables the toolchain preflight.
	CheckTools bool
}

// NewFromConfig wires a Driver with git acquisition, CMake builds and
// vcpkg project generation, all sharing one working context stack.
func NewFromConfig(s Setup) *Driver {
	layout := env.NewLayout(s.Config.Root)
	stack := dirstack.New(s.Start)
	gen := projgen.New(s.Runner, stack, s.Config)

	opts := Options{
		Registry:  s.Registry,
		Layout:    layout,
		Stack:     stack,
		Acquirer:  acquire.New(vcs.NewGit(s.Runner), stack, acquire.WithStampFile(layout.StampsPath())),
		Builder:   build.NewBuilder(s.Runner, stack),
		Generator: gen,
	}
	if s.CheckTools {
		opts.Preflight = ToolchainPreflight(s.Runner, gen.Required())
	}
	return New(opts)
}

// Stack returns the working context stack the Driver runs on.
func (d *Driver) Stack() *dirstack.Stack { return d.opts.Stack }

// ToolchainPreflight returns a preflight checking only the tools the
// resolved steps need: git for acquisition, cmake for builds and project
// generation.
func ToolchainPreflight(runner proc.Runner, generates bool) func(context.Context, []component.Step) error {
	return func(ctx context.Context, steps []component.Step) error {
		needGit, needCMake := false, generates
		for _, s := range steps {
			switch s.Kind {
			case component.Acquire:
				needGit = true
			case component.Build:
				needCMake = true
			}
		}
		var reqs []toolchain.Requirement
		if needGit {
			reqs = append(reqs, toolchain.Git)
		}
		if needCMake {
			reqs = append(reqs, toolchain.CMake)
		}
		return toolchain.Check(ctx, runner, reqs...)
	}
}
