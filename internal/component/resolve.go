package component

import (
	"fmt"
	"slices"
)

// StepKind tells acquisition steps from build steps.
type StepKind int

const (
	Acquire StepKind = iota + 1
	Build
)

func (k StepKind) String() string {
	switch k {
	case Acquire:
		return "acquire"
	case Build:
		return "build"
	}
	return fmt.Sprintf("StepKind(%d)", int(k))
}

// Step is one resolved action. Exactly one of Dependency and Build is set,
// according to Kind.
type Step struct {
	Kind       StepKind
	Component  string
	Dependency *DependencySpec
	Build      *BuildSpec
}

// Name returns the dependency or build name the step acts on.
func (s Step) Name() string {
	switch s.Kind {
	case Acquire:
		return s.Dependency.Name
	case Build:
		return s.Build.Name
	}
	return ""
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s (%s)", s.Kind, s.Name(), s.Component)
}

// UnknownComponentWarning reports a requested name with no registered
// component. It does not stop resolution.
type UnknownComponentWarning struct {
	Name string
}

func (w *UnknownComponentWarning) Error() string {
	return fmt.Sprintf("unknown component %q ignored", w.Name)
}

// Selection returns the component names to process for requested: the
// defaults if requested is empty or contains All, otherwise requested with
// duplicates removed.
func (r *Registry) Selection(requested []string) []string {
	if len(requested) == 0 || slices.Contains(requested, All) {
		return r.Defaults()
	}
	seen := make(map[string]bool, len(requested))
	names := make([]string, 0, len(requested))
	for _, name := range requested {
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Resolve maps requested component names to the ordered steps to run.
// Within a component dependencies come before builds, in declaration
// order; components keep the caller's order. Unknown names are skipped and
// reported as warnings.
func (r *Registry) Resolve(requested []string) ([]Step, []*UnknownComponentWarning) {
	var (
		steps    []Step
		warnings []*UnknownComponentWarning
	)
	for _, name := range r.Selection(requested) {
		c, ok := r.byName[name]
		if !ok {
			warnings = append(warnings, &UnknownComponentWarning{Name: name})
			continue
		}
		for i := range c.Dependencies {
			steps = append(steps, Step{Kind: Acquire, Component: c.Name, Dependency: &c.Dependencies[i]})
		}
		for i := range c.Builds {
			steps = append(steps, Step{Kind: Build, Component: c.Name, Build: &c.Builds[i]})
		}
	}
	return steps, warnings
}
