// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detach gives run a stdin that is not a terminal.
func detach(t *testing.T) {
	t.Helper()

	f, err := os.Open(os.DevNull)
	require.NoError(t, err)

	stdin := os.Stdin
	os.Stdin = f

	t.Cleanup(func() {
		os.Stdin = stdin
		_ = f.Close()
	})
}

func TestRunCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	detach(t)

	assert.Equal(t, 0, run([]string{"-c", "true"}))
	assert.Equal(t, 3, run([]string{"-c", "sh -c 'exit 3'"}))
	assert.Equal(t, 127, run([]string{"-c", "jobsh-no-such-command"}))
	assert.Equal(t, 2, run([]string{"-c", "echo 'unterminated"}))
	assert.Equal(t, 7, run([]string{"-c", "exit 7"}))
}

func TestRunCommandRedirection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	detach(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")

	require.NoError(t, os.WriteFile(in, []byte("b\na\n"), 0o644))

	assert.Equal(t, 0, run([]string{"-c", "sort < " + in + " > " + out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}

func TestRunBadConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	detach(t)

	cfg := filepath.Join(t.TempDir(), "jobsh.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("prompt: '%s'\n"), 0o644))

	assert.Equal(t, 1, run([]string{"-c", "true", "--config=" + cfg}))
	assert.Equal(t, 1, run([]string{"-c", "true", "--config=" + filepath.Join(t.TempDir(), "missing")}))
}
