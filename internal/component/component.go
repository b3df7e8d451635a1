// Package component declares the external source trees the project depends
// on and resolves a selection of component names into ordered steps.
package component

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// All selects the default component list.
const All = "all"

// DependencySpec describes one external source tree pinned to a revision.
type DependencySpec struct {
	Name     string `yaml:"name"`
	Remote   string `yaml:"remote"`
	Revision string `yaml:"revision"`
	// Submodules requests a recursive submodule fetch after pinning.
	Submodules bool `yaml:"submodules,omitempty"`
}

// Definition is a single build backend variable, passed as -D<Name>:<Type>=<Value>.
type Definition struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Value string `yaml:"value"`
}

// BuildSpec describes one configure/build/install action.
type BuildSpec struct {
	Name string `yaml:"name"`
	// Source is the source tree relative to the imported directory.
	// Empty means Name.
	Source      string       `yaml:"source,omitempty"`
	Definitions []Definition `yaml:"definitions,omitempty"`
	// Env is injected into the build backend's environment.
	Env map[string]string `yaml:"env,omitempty"`
	// EnvFromInstall maps an environment variable to the name of another
	// build; the variable is set to that build's install directory.
	EnvFromInstall map[string]string `yaml:"env_from_install,omitempty"`
}

// SourceDir returns the source tree name relative to the imported directory.
func (b *BuildSpec) SourceDir() string {
	if b.Source != "" {
		return b.Source
	}
	return b.Name
}

// Component is a named group of dependencies and builds selected together.
type Component struct {
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description,omitempty"`
	Dependencies []DependencySpec `yaml:"dependencies,omitempty"`
	Builds       []BuildSpec      `yaml:"builds,omitempty"`
}

// Manifest is the on-disk form of a Registry.
type Manifest struct {
	Default    []string    `yaml:"default"`
	Components []Component `yaml:"components"`
}

//go:embed components.yaml
var builtinManifest []byte

// Builtin returns the registry compiled into the binary.
func Builtin() *Registry {
	r, err := Parse(builtinManifest)
	if err != nil {
		panic(fmt.Sprintf("component: invalid builtin manifest: %v", err))
	}
	return r
}

// Parse decodes and validates a YAML manifest.
func Parse(data []byte) (*Registry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("component: manifest is empty")
	}
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("component: decode manifest: %w", err)
	}
	return New(m.Default, m.Components...)
}
