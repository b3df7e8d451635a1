// Copyright 2024 The radboot Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proctest provides a scripted proc.Runner for tests.
package proctest

import (
	"context"
	"strings"

	"github.com/rad/radboot/internal/proc"
)

// Result is the scripted outcome of one command.
type Result struct {
	Stdout string
	Code   int
	Err    error
}

// Fake records every command and answers with Handle.
type Fake struct {
	Calls []proc.Command

	// Handle decides the outcome of a command. Nil means every command
	// succeeds with empty output.
	Handle func(cmd proc.Command) Result
}

var _ proc.Runner = (*Fake)(nil)

func (f *Fake) Run(ctx context.Context, cmd proc.Command) (proc.ExitStatus, error) {
	res := f.do(cmd)
	return proc.ExitStatus{Code: res.Code}, res.Err
}

func (f *Fake) Output(ctx context.Context, cmd proc.Command) (string, proc.ExitStatus, error) {
	res := f.do(cmd)
	return res.Stdout, proc.ExitStatus{Code: res.Code}, res.Err
}

func (f *Fake) do(cmd proc.Command) Result {
	f.Calls = append(f.Calls, cmd)
	if f.Handle == nil {
		return Result{}
	}
	return f.Handle(cmd)
}

// Lines returns the recorded commands as "name arg1 arg2 ..." strings.
func (f *Fake) Lines() []string {
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, Line(c))
	}
	return lines
}

// Line renders cmd as "name arg1 arg2 ..." without quoting or env.
func Line(cmd proc.Command) string {
	return strings.TrimSpace(cmd.Name + " " + strings.Join(cmd.Args, " "))
}

// FailOn returns a handler that exits with code for every command whose
// Line starts with prefix, and succeeds otherwise.
func FailOn(prefix string, code int) func(proc.Command) Result {
	return func(cmd proc.Command) Result {
		if strings.HasPrefix(Line(cmd), prefix) {
			return Result{Code: code}
		}
		return Result{}
	}
}
