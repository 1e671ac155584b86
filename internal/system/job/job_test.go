// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package job_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/michaelmacinnis/jobsh/internal/system/cache"
	"github.com/michaelmacinnis/jobsh/internal/system/job"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/system/process"
	"github.com/michaelmacinnis/jobsh/internal/system/redirect"
	"github.com/michaelmacinnis/jobsh/internal/system/terminal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
	"golang.org/x/sys/unix"
)

type fixture struct {
	launcher *job.Launcher
	terminal *mocks.MockController
	stdout   string
	stderr   string
}

func (f *fixture) output(t *testing.T) (string, string) {
	t.Helper()

	stdout, err := os.ReadFile(f.stdout)
	require.NoError(t, err)

	stderr, err := os.ReadFile(f.stderr)
	require.NoError(t, err)

	return string(stdout), string(stderr)
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	ctrl := gomock.NewController(t)
	term := mocks.NewMockController(ctrl)
	term.EXPECT().Interactive().Return(false).AnyTimes()
	term.EXPECT().Fd().Return(0).AnyTimes()

	open := func(name string) *os.File {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })

		return f
	}

	stdin, err := os.Open(os.DevNull)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stdin.Close() })

	streams := job.Streams{
		Stdin:  stdin,
		Stdout: open("stdout"),
		Stderr: open("stderr"),
	}

	return &fixture{
		launcher: job.New(term, cache.OS(), streams, logger.Discard()),
		terminal: term,
		stdout:   streams.Stdout.Name(),
		stderr:   streams.Stderr.Name(),
	}
}

// expectTransfer expects the terminal to be handed to a job that leads its
// own group and then reclaimed.
func (f *fixture) expectTransfer(t *testing.T) {
	t.Helper()

	gomock.InOrder(
		f.terminal.EXPECT().HandTo(gomock.Any()).DoAndReturn(func(group int) error {
			g, err := unix.Getpgid(group)
			if assert.NoError(t, err) {
				assert.Equal(t, group, g)
			}

			assert.NotEqual(t, process.Group(), group)

			return nil
		}),
		f.terminal.EXPECT().Reclaim().Return(nil),
	)
}

func TestRunSuccess(t *testing.T) {
	f := setup(t)
	f.expectTransfer(t)

	j, err := f.launcher.Launch(context.Background(), []string{"sh", "-c", "echo hello"})
	require.NoError(t, err)

	assert.Equal(t, j.Pid, j.Group)
	assert.Zero(t, j.Status.Code)

	stdout, _ := f.output(t)
	assert.Equal(t, "hello\n", stdout)
}

func TestRunNonZeroExit(t *testing.T) {
	f := setup(t)
	f.expectTransfer(t)

	assert.Equal(t, 3, f.launcher.Run(context.Background(), []string{"sh", "-c", "exit 3"}))
}

func TestRunKilledBySignal(t *testing.T) {
	f := setup(t)
	f.expectTransfer(t)

	assert.Equal(t, 137, f.launcher.Run(context.Background(), []string{"sh", "-c", "kill -9 $$"}))
}

func TestRunStoppedJobIsHungUpOnClose(t *testing.T) {
	f := setup(t)
	f.expectTransfer(t)

	j, err := f.launcher.Launch(context.Background(), []string{"sh", "-c", "kill -STOP $$; sleep 5"})
	require.NoError(t, err)

	assert.True(t, j.Status.Stopped)
	assert.Equal(t, 128+int(unix.SIGSTOP), j.Status.Code)
	require.Len(t, f.launcher.Stopped(), 1)

	_, stderr := f.output(t)
	assert.Contains(t, stderr, "Stopped")
	assert.Contains(t, stderr, "sh -c $'kill -STOP $$; sleep 5'")

	require.NoError(t, f.launcher.Close())
	assert.Empty(t, f.launcher.Stopped())

	status, err := process.Wait(j.Pid)
	require.NoError(t, err)
	assert.Equal(t, 128+int(unix.SIGHUP), status.Code)
}

func TestRunReclaimsWhenHandoffFails(t *testing.T) {
	f := setup(t)

	gomock.InOrder(
		f.terminal.EXPECT().HandTo(gomock.Any()).Return(unix.ENOTTY),
		f.terminal.EXPECT().Reclaim().Return(unix.ENOTTY),
	)

	assert.Equal(t, 4, f.launcher.Run(context.Background(), []string{"sh", "-c", "exit 4"}))
}

func TestRunCommandNotFound(t *testing.T) {
	f := setup(t)

	status := f.launcher.Run(context.Background(), []string{"jobsh-no-such-command"})
	assert.Equal(t, job.StatusNotFound, status)

	_, stderr := f.output(t)
	assert.Equal(t, "jobsh: jobsh-no-such-command: command not found\n", stderr)
}

func TestRunNotExecutable(t *testing.T) {
	f := setup(t)

	require.NoError(t, os.WriteFile("script", []byte("echo hi\n"), 0o644))

	_, err := f.launcher.Launch(context.Background(), []string{"./script"})

	var e *job.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, job.StatusNotExecutable, e.Status)
	assert.ErrorIs(t, err, cache.ErrNotExecutable)
}

func TestRunRedirection(t *testing.T) {
	f := setup(t)
	f.expectTransfer(t)
	f.expectTransfer(t)

	require.NoError(t, os.WriteFile("in.txt", []byte("b\na\nc\n"), 0o644))

	status := f.launcher.Run(context.Background(), []string{"sort", "<", "in.txt", ">", "out.txt"})
	require.Zero(t, status)

	out, err := os.ReadFile("out.txt")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(out))

	// Output is truncated, not appended.
	status = f.launcher.Run(context.Background(), []string{"echo", "x", ">", "out.txt"})
	require.Zero(t, status)

	out, err = os.ReadFile("out.txt")
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(out))

	stdout, _ := f.output(t)
	assert.Empty(t, stdout)
}

func TestRunMissingInputFile(t *testing.T) {
	f := setup(t)

	status := f.launcher.Run(context.Background(), []string{"cat", "<", "missing.txt", ">", "out.txt"})
	assert.Equal(t, job.StatusOpenFailed, status)

	_, err := os.Stat("out.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, stderr := f.output(t)
	assert.Contains(t, stderr, "missing.txt")
}

func TestRunRedirectionSyntax(t *testing.T) {
	f := setup(t)

	status := f.launcher.Run(context.Background(), []string{"ls", ">"})
	assert.Equal(t, job.StatusSyntax, status)

	_, err := f.launcher.Launch(context.Background(), []string{"ls", ">", "a", ">", "b"})
	assert.ErrorIs(t, err, redirect.ErrDuplicateRedirect)

	_, stderr := f.output(t)
	assert.Contains(t, stderr, "jobsh: syntax error:")
}

func TestLaunchCancelled(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.launcher.Launch(ctx, []string{"echo", "x", ">", "out.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobString(t *testing.T) {
	j := &job.Job{
		Args:   []string{"grep", "a b", "x"},
		Input:  "in.txt",
		Output: "out.txt",
	}

	assert.Equal(t, "grep $'a b' x < in.txt > out.txt", j.String())
}

func TestErrorUnwraps(t *testing.T) {
	err := error(&job.Error{Status: 127, Err: zerr.Wrap(cache.ErrNotFound, "x")})

	assert.ErrorIs(t, err, cache.ErrNotFound)
	assert.Equal(t, "x: command not found", err.Error())
}
