// Released under an MIT license. See LICENSE.

package builtin_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/michaelmacinnis/jobsh/internal/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shell struct {
	exited bool
	status int
	last   int
	stderr bytes.Buffer
	stdout bytes.Buffer
}

func (s *shell) Exit(status int) {
	s.exited = true
	s.status = status
}

func (s *shell) Status() int {
	return s.last
}

func (s *shell) Stderr() io.Writer {
	return &s.stderr
}

func (s *shell) Stdout() io.Writer {
	return &s.stdout
}

func run(t *testing.T, sh *shell, args ...string) int {
	t.Helper()

	b, ok := builtin.New().Lookup(args[0])
	require.True(t, ok, "%s is not a builtin", args[0])

	return b.Run(sh, args)
}

func TestLookup(t *testing.T) {
	table := builtin.New()

	for _, name := range []string{"?", "exit", "pwd", "cd"} {
		_, ok := table.Lookup(name)
		assert.True(t, ok, name)
	}

	_, ok := table.Lookup("ls")
	assert.False(t, ok)
}

func TestHelp(t *testing.T) {
	sh := &shell{}

	assert.Zero(t, run(t, sh, "?"))
	assert.Equal(t, `? - show this help menu
exit - exit the command shell
pwd - prints the current working directory
cd - changes the current working directory to new directory
`, sh.stdout.String())
}

func TestPwd(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	t.Chdir(dir)

	sh := &shell{}
	assert.Zero(t, run(t, sh, "pwd"))
	assert.Equal(t, dir+"\n", sh.stdout.String())
}

func TestCd(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	t.Chdir(dir)
	t.Setenv("PWD", dir)

	sh := &shell{}
	assert.Zero(t, run(t, sh, "cd", "sub"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub"), wd)
	assert.Equal(t, wd, os.Getenv("PWD"))
}

func TestCdFailureLeavesDirectoryUnchanged(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	t.Chdir(dir)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing argument", []string{"cd"}, "cd: missing argument\n"},
		{"nonexistent", []string{"cd", "nonexistent"}, "no such file or directory"},
		{"too many", []string{"cd", "a", "b"}, "cd: too many arguments\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := &shell{}

			assert.Equal(t, 1, run(t, sh, tt.args...))
			assert.Contains(t, sh.stderr.String(), tt.want)

			wd, err := os.Getwd()
			require.NoError(t, err)
			assert.Equal(t, dir, wd)
		})
	}
}

func TestExit(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		last   int
		exited bool
		want   int
	}{
		{"last status", []string{"exit"}, 3, true, 3},
		{"explicit", []string{"exit", "7"}, 3, true, 7},
		{"wraps", []string{"exit", "257"}, 0, true, 1},
		{"not a number", []string{"exit", "seven"}, 0, true, 2},
		{"too many", []string{"exit", "1", "2"}, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := &shell{last: tt.last}

			run(t, sh, tt.args...)

			assert.Equal(t, tt.exited, sh.exited)
			assert.Equal(t, tt.want, sh.status)
		})
	}
}
