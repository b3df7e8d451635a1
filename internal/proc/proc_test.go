package proc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/qiniu/x/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "SDL3_DIR=/old", "MALFORMED"}
	got := MergeEnv(base, map[string]string{"SDL3_DIR": "/new", "EXTRA": "1"})

	assert.Equal(t, []string{
		"EXTRA=1",
		"HOME=/root",
		"PATH=/bin",
		"SDL3_DIR=/new",
	}, got)
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain",
			cmd:  Command{Name: "git", Args: []string{"reset", "--hard", "abc123"}},
			want: "git reset --hard abc123",
		},
		{
			name: "quoted",
			cmd:  Command{Name: "cmake", Args: []string{"-B", "/my build"}},
			want: `cmake -B "/my build"`,
		},
		{
			name: "env prefix sorted",
			cmd: Command{
				Name: "cmake",
				Args: []string{"--version"},
				Env:  map[string]string{"Z": "1", "A": "x y"},
			},
			want: `A="x y" Z=1 cmake --version`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.String())
		})
	}
}

func TestExitStatus(t *testing.T) {
	assert.True(t, ExitStatus{}.OK())
	assert.NoError(t, ExitStatus{}.Err())

	err := ExitStatus{Code: 2}.Err()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.EqualError(t, err, "exit status 2")

	startErr := errors.New("not found")
	assert.Equal(t, startErr, Check(ExitStatus{Code: -1}, startErr))
	assert.NoError(t, Check(ExitStatus{}, nil))
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
}

func TestRunNonzeroExitIsNotAnError(t *testing.T) {
	requireShell(t)
	var out bytes.Buffer
	r := New(WithStdout(&out), WithStderr(&out))

	status, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hi; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, status.Code)
	assert.Equal(t, "hi\n", out.String())
}

func TestEveryCommandIsEchoed(t *testing.T) {
	requireShell(t)
	var buf bytes.Buffer
	level := log.GetOutputLevel()
	log.SetOutput(&buf)
	log.SetOutputLevel(log.Linfo)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetOutputLevel(level)
	})

	r := New(WithStdout(&bytes.Buffer{}), WithStderr(&bytes.Buffer{}))
	ctx := context.Background()
	_, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, err)
	out, _, err := r.Output(ctx, Command{Name: "sh", Args: []string{"-c", "echo 3.16.0"}})
	require.NoError(t, err)
	assert.Equal(t, "3.16.0", out)

	assert.Contains(t, buf.String(), `Execute: sh -c "exit 0"`)
	assert.Contains(t, buf.String(), `Execute: sh -c "echo 3.16.0"`)
}

func TestRunEnvOverrideAndDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	t.Setenv("RADBOOT_KEEP", "kept")
	t.Setenv("RADBOOT_OVERRIDE", "old")

	r := New()
	out, status, err := r.Output(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", `echo "$RADBOOT_KEEP $RADBOOT_OVERRIDE"; pwd -P`},
		Dir:  dir,
		Env:  map[string]string{"RADBOOT_OVERRIDE": "new"},
	})
	require.NoError(t, err)
	require.True(t, status.OK())

	lines := bytes.Split([]byte(out), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "kept new", string(lines[0]))
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want, string(lines[1]))
}

func TestRunMissingBinary(t *testing.T) {
	r := New()
	status, err := r.Run(context.Background(), Command{Name: "radboot-definitely-missing-binary"})
	require.Error(t, err)
	assert.False(t, status.OK())
}
