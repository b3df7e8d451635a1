// Package acquire makes sure a pinned copy of each source tree exists.
package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/vcs"
)

// Stage names the acquisition sub-action that failed.
type Stage string

const (
	StageClone      Stage = "clone"
	StagePin        Stage = "pin"
	StageSubmodules Stage = "submodules"
)

// Error reports a failed acquisition.
type Error struct {
	Name  string
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("acquire %s: %s: %v", e.Name, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Acquirer clones and pins source trees. Directory changes go through the
// shared dirstack.Stack.
type Acquirer struct {
	git    *vcs.Git
	stack  *dirstack.Stack
	stamps string
	now    func() time.Time
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithStampFile records every successful pin in path.
func WithStampFile(path string) Option {
	return func(a *Acquirer) {
		a.stamps = path
	}
}

// New returns an Acquirer.
func New(git *vcs.Git, stack *dirstack.Stack, opts ...Option) *Acquirer {
	a := &Acquirer{git: git, stack: stack, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ensure makes rootDir/<spec.Name> a checkout of spec.Remote at
// spec.Revision. The clone only happens when no valid checkout is present;
// the pin always runs, so repeated calls converge on the same tree.
func (a *Acquirer) Ensure(ctx context.Context, spec component.DependencySpec, rootDir string) error {
	root := a.stack.Abs(rootDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return &Error{Name: spec.Name, Stage: StageClone, Err: err}
	}
	dest := filepath.Join(root, spec.Name)

	err := a.stack.Do(root, func() error {
		return a.clone(ctx, spec, dest)
	})
	if err != nil {
		return err
	}

	err = a.stack.Do(dest, func() error {
		dir := a.stack.Current()
		if err := a.pin(ctx, dir, spec.Revision); err != nil {
			return &Error{Name: spec.Name, Stage: StagePin, Err: err}
		}
		if spec.Submodules {
			if err := a.git.UpdateSubmodules(ctx, dir); err != nil {
				return &Error{Name: spec.Name, Stage: StageSubmodules, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.record(spec)
	return nil
}

func (a *Acquirer) clone(ctx context.Context, spec component.DependencySpec, dest string) error {
	if a.git.IsCheckout(ctx, dest) {
		log.Infof("%s: checkout present at %s", spec.Name, dest)
		return nil
	}
	if _, err := os.Lstat(dest); err == nil {
		log.Warnf("%s: %s is not a valid checkout, cloning again", spec.Name, dest)
		if err := os.RemoveAll(dest); err != nil {
			return &Error{Name: spec.Name, Stage: StageClone, Err: err}
		}
	}
	if err := a.git.Clone(ctx, a.stack.Current(), spec.Remote, spec.Name); err != nil {
		return &Error{Name: spec.Name, Stage: StageClone, Err: err}
	}
	return nil
}

func (a *Acquirer) pin(ctx context.Context, dir, rev string) error {
	if !a.git.HasRevision(ctx, dir, rev) {
		if err := a.git.Fetch(ctx, dir); err != nil {
			return err
		}
	}
	return a.git.Reset(ctx, dir, rev)
}

// record stores the pin. Stamps only feed the status report, so failures
// are logged and do not fail the acquisition.
func (a *Acquirer) record(spec component.DependencySpec) {
	if a.stamps == "" {
		return
	}
	stamps, err := LoadStamps(a.stamps)
	if err != nil {
		log.Warnf("%s: cannot read stamps: %v", spec.Name, err)
		stamps = Stamps{}
	}
	stamps.set(spec.Name, &Stamp{
		Remote:   spec.Remote,
		Revision: spec.Revision,
		PinnedAt: a.now().UTC(),
	})
	if err := saveStamps(a.stamps, stamps); err != nil {
		log.Warnf("%s: cannot write stamps: %v", spec.Name, err)
	}
}
