// Package config gathers the settings of one orchestrator run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// ToolchainRootVar points at the vcpkg installation providing the
	// CMake toolchain file on platforms that need one.
	ToolchainRootVar = "VCPKG_ROOT"

	// EnvFile is loaded from the project root when present. Variables
	// already set in the process environment win.
	EnvFile = ".env"
)

// ErrNotSet reports a required setting that is missing.
var ErrNotSet = errors.New("not set")

// Error reports missing or invalid configuration.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds the settings of one run.
type Config struct {
	// Root is the absolute project root.
	Root string
	// GOOS selects platform-conditional behavior.
	GOOS string
	// ToolchainRoot is the value of ToolchainRootVar.
	ToolchainRoot string
}

// Load resolves root, applies root/.env and reads the environment.
func Load(root string) (*Config, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &Error{Key: "root", Err: err}
	}
	if err := loadEnvFile(filepath.Join(abs, EnvFile)); err != nil {
		return nil, err
	}
	return &Config{
		Root:          abs,
		GOOS:          runtime.GOOS,
		ToolchainRoot: strings.TrimSpace(os.Getenv(ToolchainRootVar)),
	}, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return &Error{Key: EnvFile, Err: err}
	}
	return nil
}

// RequireToolchainRoot returns ToolchainRoot or an *Error if it is unset.
func (c *Config) RequireToolchainRoot() (string, error) {
	if c.ToolchainRoot == "" {
		return "", &Error{Key: ToolchainRootVar, Err: ErrNotSet}
	}
	return c.ToolchainRoot, nil
}
