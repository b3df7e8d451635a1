package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rad/radboot/internal/component"
	"github.com/rad/radboot/internal/dirstack"
	"github.com/rad/radboot/internal/env"
	"github.com/rad/radboot/internal/proc"
	"github.com/rad/radboot/internal/proc/proctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, fake *proctest.Fake) (*Builder, *dirstack.Stack, env.Layout) {
	t.Helper()
	layout := env.NewLayout(t.TempDir())
	_, err := layout.EnsureImported()
	require.NoError(t, err)
	stack := dirstack.New(t.TempDir())
	return NewBuilder(fake, stack), stack, layout
}

func TestBuildAndInstall(t *testing.T) {
	fake := &proctest.Fake{}
	b, stack, layout := setup(t, fake)
	start := stack.Current()
	require.NoError(t, os.MkdirAll(layout.InstallDir("SDL"), 0o755))

	spec := &component.BuildSpec{
		Name:           "SDL_mixer",
		Definitions:    []component.Definition{{Name: "SDLMIXER_VENDORED", Type: "BOOL", Value: "ON"}},
		Env:            map[string]string{"CFLAGS": "-O2"},
		EnvFromInstall: map[string]string{"SDL3_DIR": "SDL"},
	}
	require.NoError(t, b.BuildAndInstall(context.Background(), spec, layout))

	buildDir := layout.BuildDir("SDL_mixer")
	assert.Equal(t, []string{
		"cmake -S " + layout.SourceDir("SDL_mixer") + " -B " + buildDir +
			" -DCMAKE_BUILD_TYPE:STRING=Release" +
			" -DCMAKE_INSTALL_PREFIX:STRING=" + layout.InstallDir("SDL_mixer") +
			" -DSDLMIXER_VENDORED:BOOL=ON",
		"cmake --build " + buildDir + " --config Release --target install",
	}, fake.Lines())

	wantEnv := map[string]string{"CFLAGS": "-O2", "SDL3_DIR": layout.InstallDir("SDL")}
	for _, call := range fake.Calls {
		assert.Equal(t, layout.Imported(), call.Dir)
		assert.Equal(t, wantEnv, call.Env)
	}
	assert.DirExists(t, buildDir)
	assert.Equal(t, start, stack.Current())
	assert.Equal(t, 0, stack.Depth())
}

func TestBuildAndInstallCustomSource(t *testing.T) {
	fake := &proctest.Fake{}
	b, _, layout := setup(t, fake)

	spec := &component.BuildSpec{Name: "tool", Source: filepath.Join("repo", "tool")}
	require.NoError(t, b.BuildAndInstall(context.Background(), spec, layout))
	assert.Equal(t, []string{"-S", filepath.Join(layout.Imported(), "repo", "tool")}, fake.Calls[0].Args[:2])
	assert.Nil(t, fake.Calls[0].Env)
}

func TestBuildAndInstallFailures(t *testing.T) {
	tests := []struct {
		fail      string
		stage     Stage
		wantCalls int
	}{
		{"cmake -S", StageConfigure, 1},
		{"cmake --build", StageBuild, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			fake := &proctest.Fake{Handle: proctest.FailOn(tt.fail, 1)}
			b, stack, layout := setup(t, fake)
			start := stack.Current()

			err := b.BuildAndInstall(context.Background(), &component.BuildSpec{Name: "SDL"}, layout)
			var buildErr *Error
			require.True(t, errors.As(err, &buildErr), "got %v", err)
			assert.Equal(t, "SDL", buildErr.Name)
			assert.Equal(t, tt.stage, buildErr.Stage)
			var exitErr *proc.ExitError
			assert.ErrorAs(t, err, &exitErr)
			assert.Len(t, fake.Calls, tt.wantCalls)
			assert.Equal(t, start, stack.Current())
			assert.Equal(t, 0, stack.Depth())
		})
	}
}

func TestBuildAndInstallMissingImported(t *testing.T) {
	fake := &proctest.Fake{}
	stack := dirstack.New(t.TempDir())
	b := NewBuilder(fake, stack, WithConfig("Debug"), WithCMakePath("/opt/cmake/bin/cmake"))
	layout := env.NewLayout(filepath.Join(t.TempDir(), "absent"))

	err := b.BuildAndInstall(context.Background(), &component.BuildSpec{Name: "SDL"}, layout)
	var pathErr *dirstack.PathError
	assert.ErrorAs(t, err, &pathErr)
	assert.Empty(t, fake.Calls)
}

func TestEnvironment(t *testing.T) {
	layout := env.NewLayout("/p")
	spec := &component.BuildSpec{
		Name:           "SDL_mixer",
		Env:            map[string]string{"A": "1", "SDL3_DIR": "overridden"},
		EnvFromInstall: map[string]string{"SDL3_DIR": "SDL"},
	}
	got := Environment(spec, layout)
	assert.Equal(t, map[string]string{
		"A":        "1",
		"SDL3_DIR": filepath.Join("/p", "imported", "installed", "SDL"),
	}, got)
}
