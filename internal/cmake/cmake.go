// Package cmake wraps the cmake configure/build workflow.
package cmake

import (
	"context"
	"os"
	"sort"

	"github.com/rad/radboot/internal/proc"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	runner     proc.Runner
	cmake      string
	sourceDir  string
	buildDir   string
	installDir string
	buildType  string
	toolchain  string
	defines    map[string]defineValue
	env        map[string]string
}

// New returns a CMake for one source/build/install triple. An empty
// installDir leaves CMAKE_INSTALL_PREFIX unset.
func New(runner proc.Runner, sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		runner:     runner,
		cmake:      "cmake",
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    make(map[string]defineValue),
		env:        make(map[string]string),
	}
}

// Executable overrides the cmake binary.
func (c *CMake) Executable(path string) { c.cmake = path }

// BuildType sets CMAKE_BUILD_TYPE and the --config of multi-config
// generators (e.g. "Release").
func (c *CMake) BuildType(name string) { c.buildType = name }

// Toolchain sets CMAKE_TOOLCHAIN_FILE.
func (c *CMake) Toolchain(path string) { c.toolchain = path }

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) {
	c.DefineTyped(key, "STRING", value)
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) {
	v := "OFF"
	if value {
		v = "ON"
	}
	c.DefineTyped(key, "BOOL", v)
}

// DefineTyped adds a -D<key>:<typeName>=<value> definition. An empty
// typeName yields -D<key>=<value>.
func (c *CMake) DefineTyped(key, typeName, value string) {
	c.defines[key] = defineValue{value: value, typeName: typeName}
}

// Env sets an environment variable for every cmake invocation. The
// process environment is not modified.
func (c *CMake) Env(key, value string) { c.env[key] = value }

// Configure runs "cmake -S <source> -B <build>" from dir with all
// configured options. Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, dir string, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, dir, cmakeArgs)
}

// Build runs "cmake --build <build>" from dir with optional extra arguments.
func (c *CMake) Build(ctx context.Context, dir string, args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, dir, cmakeArgs)
}

// OutputDir returns installDir if set, otherwise buildDir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) run(ctx context.Context, dir string, args []string) error {
	cmd := proc.Command{Name: c.cmake, Args: args, Dir: dir}
	if len(c.env) > 0 {
		cmd.Env = c.env
	}
	return proc.Check(c.runner.Run(ctx, cmd))
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		if d.typeName == "" {
			args = append(args, "-D"+k+"="+d.value)
			continue
		}
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}
