// Copyright 2024 The radboot Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package toolchain checks that the external tools the orchestrator drives
// are installed and recent enough.
package toolchain

import (
	"context"
	"fmt"
	"regexp"

	"github.com/qiniu/x/log"
	"github.com/rad/radboot/internal/config"
	"github.com/rad/radboot/internal/proc"
	"golang.org/x/mod/semver"
)

// Requirement is a tool and its minimum version (major.minor.patch).
type Requirement struct {
	Tool string
	Min  string
}

var (
	Git = Requirement{Tool: "git", Min: "2.0.0"}
	// SDL3 requires CMake 3.16.
	CMake = Requirement{Tool: "cmake", Min: "3.16.0"}
)

var versionRE = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// Check runs "<tool> --version" for every requirement and compares the
// reported version. A missing or outdated tool yields a *config.Error.
func Check(ctx context.Context, runner proc.Runner, reqs ...Requirement) error {
	for _, req := range reqs {
		have, err := Version(ctx, runner, req.Tool)
		if err != nil {
			return &config.Error{Key: req.Tool, Err: err}
		}
		want := "v" + req.Min
		if !semver.IsValid(want) {
			return &config.Error{Key: req.Tool, Err: fmt.Errorf("invalid minimum version %q", req.Min)}
		}
		if semver.Compare(have, want) < 0 {
			return &config.Error{Key: req.Tool, Err: fmt.Errorf("version %s is older than required %s", have[1:], req.Min)}
		}
		log.Debugf("%s %s ok (>= %s)", req.Tool, have[1:], req.Min)
	}
	return nil
}

// Version returns the semantic version tool reports, with a "v" prefix.
func Version(ctx context.Context, runner proc.Runner, tool string) (string, error) {
	out, status, err := runner.Output(ctx, proc.Command{Name: tool, Args: []string{"--version"}})
	if err := proc.Check(status, err); err != nil {
		return "", fmt.Errorf("not usable: %w", err)
	}
	v, ok := parseVersion(out)
	if !ok {
		return "", fmt.Errorf("cannot parse version from %q", out)
	}
	return v, nil
}

func parseVersion(out string) (string, bool) {
	m := versionRE.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := fmt.Sprintf("v%s.%s.%s", m[1], m[2], patch)
	return v, semver.IsValid(v)
}
