// Released under an MIT license. See LICENSE.

package job_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/michaelmacinnis/jobsh/internal/system/cache"
	"github.com/michaelmacinnis/jobsh/internal/system/job"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/system/process"
	"github.com/michaelmacinnis/jobsh/internal/system/signals"
	"github.com/michaelmacinnis/jobsh/internal/system/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const helperEnv = "JOBSH_JOB_HELPER"

func TestMain(m *testing.M) {
	if dir := os.Getenv(helperEnv); dir != "" {
		os.Exit(shell(dir))
	}

	os.Exit(m.Run())
}

// stat returns the process group and terminal foreground group recorded in
// a copy of /proc/<pid>/stat.
func stat(name string) (pgrp, tpgid int, err error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return 0, 0, err
	}

	s := string(b)

	fields := strings.Fields(s[strings.LastIndex(s, ")")+1:])
	if len(fields) < 6 {
		return 0, 0, fmt.Errorf("short stat: %q", s)
	}

	pgrp, err = strconv.Atoi(fields[2])
	if err != nil {
		return 0, 0, err
	}

	tpgid, err = strconv.Atoi(fields[5])

	return pgrp, tpgid, err
}

// shell runs as a session leader whose controlling terminal is stdin.
func shell(dir string) int {
	policy := signals.New()
	policy.Shell()

	defer policy.Release()

	s, err := terminal.Initialize(os.Stdin, policy)
	if err != nil {
		fmt.Println("initialize:", err)

		return 1
	}

	streams := job.Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	l := job.New(s, cache.OS(), streams, logger.Discard())

	defer l.Close()

	out := filepath.Join(dir, "stat")

	j, err := l.Launch(context.Background(), []string{"cat", "/proc/self/stat", ">", out})
	if err != nil || j.Status.Code != 0 {
		fmt.Println("launch:", err)

		return 1
	}

	pgrp, tpgid, err := stat(out)
	if err != nil {
		fmt.Println("stat:", err)

		return 1
	}

	if pgrp != j.Pid || tpgid != j.Pid {
		fmt.Println("job was not a foreground group leader:", j.Pid, pgrp, tpgid)

		return 1
	}

	fg, err := process.ForegroundGroup(s.Fd())
	if err != nil || fg != s.Group() {
		fmt.Println("shell did not reclaim the terminal:", fg, err)

		return 1
	}

	// A job that dies by signal still returns the terminal.
	if status := l.Run(context.Background(), []string{"sh", "-c", "kill -9 $$"}); status != 137 {
		fmt.Println("unexpected status:", status)

		return 1
	}

	fg, err = process.ForegroundGroup(s.Fd())
	if err != nil || fg != s.Group() {
		fmt.Println("shell did not reclaim the terminal after kill:", fg, err)

		return 1
	}

	fmt.Println("ok")

	return 0
}

func TestForegroundJobOnTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("no pty: %v", err)
	}

	defer ptmx.Close()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(), helperEnv+"="+t.TempDir())
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &unix.SysProcAttr{Setsid: true, Setctty: true}

	require.NoError(t, cmd.Start())
	require.NoError(t, tty.Close())

	var out bytes.Buffer

	copied := make(chan struct{})

	go func() {
		_, _ = io.Copy(&out, ptmx)

		close(copied)
	}()

	err = cmd.Wait()

	select {
	case <-copied:
	case <-time.After(10 * time.Second):
		t.Fatal("terminal output never closed")
	}

	require.NoError(t, err, out.String())
	assert.Contains(t, out.String(), "ok")
}
