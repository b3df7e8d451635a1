// Package projgen generates the project's own build files once the
// dependencies are in place.
package projgen

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/cmake"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/proc"
)

// ToolchainPlatform is the only platform that needs an explicit
// toolchain file; everywhere else generation is left to the developer.
const ToolchainPlatform = "windows"

// BuildDir is the project build tree, relative to the project root.
const BuildDir = "build"

// Error reports a failed project generation.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generate project files: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ToolchainFile returns the vcpkg CMake toolchain file under root.
func ToolchainFile(root string) string {
	return path.Join(filepath.ToSlash(root), "scripts", "buildsystems", "vcpkg.cmake")
}

// Generator runs the project's configure step.
type Generator struct {
	runner proc.Runner
	stack  *dirstack.Stack
	cfg    *config.Config
}

func New(runner proc.Runner, stack *dirstack.Stack, cfg *config.Config) *Generator {
	return &Generator{runner: runner, stack: stack, cfg: cfg}
}

// Required reports whether the configured platform needs generation.
func (g *Generator) Required() bool {
	return g.cfg.GOOS == ToolchainPlatform
}

// Generate configures the project in cfg.Root against the vcpkg
// toolchain. It is a no-op unless Required.
func (g *Generator) Generate(ctx context.Context) error {
	if !g.Required() {
		log.Debugf("project files: nothing to generate on %s", g.cfg.GOOS)
		return nil
	}
	root, err := g.cfg.RequireToolchainRoot()
	if err != nil {
		return err
	}
	return g.stack.Do(g.cfg.Root, func() error {
		c := cmake.New(g.runner, ".", g.stack.Abs(BuildDir), "")
		c.Toolchain(ToolchainFile(root))
		if err := c.Configure(ctx, g.stack.Current()); err != nil {
			return &Error{Err: err}
		}
		return nil
	})
}
