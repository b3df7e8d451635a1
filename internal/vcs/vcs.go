// Package vcs drives the git client used to acquire source trees.
package vcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rad/radboot/internal/proc"
)

// CeilingVar stops git from searching parent directories for a repository.
const CeilingVar = "GIT_CEILING_DIRECTORIES"

// Git runs git commands through a proc.Runner.
type Git struct {
	runner proc.Runner
	git    string
}

// GitOption configures Git.
type GitOption func(*Git)

// WithGitPath sets a custom git executable path.
func WithGitPath(path string) GitOption {
	return func(g *Git) {
		g.git = path
	}
}

// NewGit creates a Git that runs commands with runner.
func NewGit(runner proc.Runner, opts ...GitOption) *Git {
	g := &Git{runner: runner, git: "git"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Clone clones remote into dest, relative to dir.
func (g *Git) Clone(ctx context.Context, dir, remote, dest string) error {
	if err := g.run(ctx, dir, "clone", remote, dest); err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	return nil
}

// IsCheckout reports whether dir holds a usable working tree: a .git entry
// must exist and HEAD must resolve to a commit of dir's own repository. An
// interrupted clone fails the second check.
func (g *Git) IsCheckout(ctx context.Context, dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return false
	}
	_, err := g.output(ctx, dir, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// HasRevision reports whether rev names a commit available locally.
func (g *Git) HasRevision(ctx context.Context, dir, rev string) bool {
	_, err := g.output(ctx, dir, "cat-file", "-e", rev+"^{commit}")
	return err == nil
}

// Fetch fetches branches and tags from origin.
func (g *Git) Fetch(ctx context.Context, dir string) error {
	if err := g.run(ctx, dir, "fetch", "--tags", "origin"); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return nil
}

// Reset forces the working tree in dir to rev.
func (g *Git) Reset(ctx context.Context, dir, rev string) error {
	if err := g.run(ctx, dir, "reset", "--hard", rev); err != nil {
		return fmt.Errorf("reset %s: %w", rev, err)
	}
	return nil
}

// UpdateSubmodules initializes and updates all nested submodules.
func (g *Git) UpdateSubmodules(ctx context.Context, dir string) error {
	if err := g.run(ctx, dir, "submodule", "update", "--init", "--recursive"); err != nil {
		return fmt.Errorf("submodule update: %w", err)
	}
	return nil
}

// Head returns the commit hash HEAD points to.
func (g *Git) Head(ctx context.Context, dir string) (string, error) {
	out, err := g.output(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("rev-parse HEAD: %w", err)
	}
	return out, nil
}

func (g *Git) run(ctx context.Context, dir string, args ...string) error {
	return proc.Check(g.runner.Run(ctx, g.command(dir, args)))
}

func (g *Git) output(ctx context.Context, dir string, args ...string) (string, error) {
	out, status, err := g.runner.Output(ctx, g.command(dir, args))
	if err := proc.Check(status, err); err != nil {
		return "", err
	}
	return out, nil
}

// command confines repository discovery to dir. Checkouts live inside the
// project's own repository, and a damaged .git must not make git fall back
// to it.
func (g *Git) command(dir string, args []string) proc.Command {
	cmd := proc.Command{Name: g.git, Args: args, Dir: dir}
	if filepath.IsAbs(dir) {
		cmd.Env = map[string]string{CeilingVar: filepath.Dir(dir)}
	}
	return cmd
}
