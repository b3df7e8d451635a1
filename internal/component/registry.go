package component

import (
	"errors"
	"fmt"
	"slices"
)

// Registry holds the known components and the default selection.
type Registry struct {
	components []*Component
	byName     map[string]*Component
	builds     map[string]*BuildSpec
	defaults   []string
}

// New validates comps and returns a Registry. Component, dependency and
// build names must be unique, defaults must name registered components and
// every EnvFromInstall entry must name a declared build.
func New(defaults []string, comps ...Component) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]*Component, len(comps)),
		builds: make(map[string]*BuildSpec),
	}
	deps := make(map[string]string)
	for i := range comps {
		c := &comps[i]
		if c.Name == "" {
			return nil, fmt.Errorf("component: component #%d has no name", i)
		}
		if c.Name == All {
			return nil, fmt.Errorf("component: %q is reserved", All)
		}
		if _, dup := r.byName[c.Name]; dup {
			return nil, fmt.Errorf("component: duplicate component %q", c.Name)
		}
		for _, d := range c.Dependencies {
			if err := validateDependency(d); err != nil {
				return nil, fmt.Errorf("component %s: %w", c.Name, err)
			}
			if owner, dup := deps[d.Name]; dup {
				return nil, fmt.Errorf("component %s: dependency %q already declared by %s", c.Name, d.Name, owner)
			}
			deps[d.Name] = c.Name
		}
		for j := range c.Builds {
			b := &c.Builds[j]
			if b.Name == "" {
				return nil, fmt.Errorf("component %s: build #%d has no name", c.Name, j)
			}
			if _, dup := r.builds[b.Name]; dup {
				return nil, fmt.Errorf("component %s: duplicate build %q", c.Name, b.Name)
			}
			r.builds[b.Name] = b
		}
		r.byName[c.Name] = c
		r.components = append(r.components, c)
	}
	for _, c := range r.components {
		for _, b := range c.Builds {
			for key, ref := range b.EnvFromInstall {
				if _, ok := r.builds[ref]; !ok {
					return nil, fmt.Errorf("component %s: build %s: %s refers to unknown build %q", c.Name, b.Name, key, ref)
				}
			}
		}
	}
	for _, name := range defaults {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("component: default %q is not registered", name)
		}
	}
	r.defaults = slices.Clone(defaults)
	return r, nil
}

func validateDependency(d DependencySpec) error {
	switch {
	case d.Name == "":
		return errors.New("dependency has no name")
	case d.Remote == "":
		return fmt.Errorf("dependency %s has no remote", d.Name)
	case d.Revision == "":
		return fmt.Errorf("dependency %s is not pinned to a revision", d.Name)
	}
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (*Component, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Components returns all components in declaration order.
func (r *Registry) Components() []*Component {
	return slices.Clone(r.components)
}

// Defaults returns the default selection.
func (r *Registry) Defaults() []string {
	return slices.Clone(r.defaults)
}

// Dependencies returns every declared dependency in declaration order.
func (r *Registry) Dependencies() []DependencySpec {
	var deps []DependencySpec
	for _, c := range r.components {
		deps = append(deps, c.Dependencies...)
	}
	return deps
}

// Build returns the build declared under name.
func (r *Registry) Build(name string) (*BuildSpec, bool) {
	b, ok := r.builds[name]
	return b, ok
}
