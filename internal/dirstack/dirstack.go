// Copyright 2024 The radboot Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dirstack tracks the orchestrator's working context.
//
// The working context is a value owned by a Stack; the process working
// directory is never changed. Child processes are started in
// Stack.Current().
package dirstack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qiniu/x/log"
)

// ErrStackUnderflow is returned by Leave when there is no context to return
// to. It always indicates unpaired Enter/Leave calls.
var ErrStackUnderflow = errors.New("dirstack: leave on empty stack")

// PathError reports a context that cannot be entered.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("enter %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Checker decides whether a directory can become the working context.
type Checker interface {
	// Enterable returns nil if path is an existing directory that can be
	// traversed.
	Enterable(path string) error
}

// OSChecker checks paths against the real filesystem.
type OSChecker struct{}

func (OSChecker) Enterable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errors.New("not a directory")
	}
	return access(path)
}

// Stack is a LIFO of previous working contexts.
type Stack struct {
	checker Checker
	current string
	saved   []string
}

// Option configures a Stack.
type Option func(*Stack)

// WithChecker replaces the filesystem check used by Enter.
func WithChecker(c Checker) Option {
	return func(s *Stack) {
		s.checker = c
	}
}

// New returns an empty Stack whose current context is start.
func New(start string, opts ...Option) *Stack {
	s := &Stack{checker: OSChecker{}, current: filepath.Clean(start)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the current working context.
func (s *Stack) Current() string { return s.current }

// Depth returns the number of saved contexts.
func (s *Stack) Depth() int { return len(s.saved) }

// Abs resolves path against the current context.
func (s *Stack) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.current, path)
}

// Enter saves the current context and makes path current.
func (s *Stack) Enter(path string) error {
	target := s.Abs(path)
	if err := s.checker.Enterable(target); err != nil {
		return &PathError{Path: target, Err: err}
	}
	s.saved = append(s.saved, s.current)
	s.current = target
	log.Debugf("Working dir: %s", s.current)
	return nil
}

// Leave restores the most recently saved context.
func (s *Stack) Leave() error {
	n := len(s.saved)
	if n == 0 {
		return ErrStackUnderflow
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
	log.Debugf("Working dir: %s", s.current)
	return nil
}

// Do enters path, runs fn and leaves again, whether fn returns an error or
// panics. An error from fn wins over an error from Leave.
func (s *Stack) Do(path string, fn func() error) (err error) {
	if err := s.Enter(path); err != nil {
		return err
	}
	defer func() {
		if lerr := s.Leave(); lerr != nil && err == nil {
			err = lerr
		}
	}()
	return fn()
}

// Reset drops every saved context and makes ctx current. It makes no
// assumption about the state of the stack.
func (s *Stack) Reset(ctx string) {
	s.saved = s.saved[:0]
	s.current = filepath.Clean(ctx)
	log.Debugf("Working dir: %s", s.current)
}
