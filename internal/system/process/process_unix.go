// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package process wraps the process group, terminal group and wait calls
// used to run a job in its own group.
package process

import (
	"errors"

	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

//nolint:gochecknoglobals
var (
	id       = unix.Getpid()
	group, _ = unix.Getpgid(id)
)

// Status is the decoded result of waiting on a job.
type Status struct {
	Code    int
	Signal  unix.Signal
	Stopped bool
}

// BecomeForegroundGroup performs the Unix incantations necessary to put the
// current process, as the leader of its own group, in the foreground of the
// terminal fd. The caller is responsible for masking SIGTTOU.
func BecomeForegroundGroup(fd int) error {
	for {
		fg, err := ForegroundGroup(fd)
		if err != nil {
			return err
		}

		if fg == group {
			break
		}

		err = unix.Kill(-group, unix.SIGTTIN)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "sigttin"), "group", group)
		}

		group, err = unix.Getpgid(id)
		if err != nil {
			return zerr.Wrap(err, "getpgid")
		}
	}

	if id != group {
		err := unix.Setpgid(id, id)
		if err != nil {
			return zerr.Wrap(err, "setpgid")
		}

		group = id
	}

	return SetForegroundGroup(fd, group)
}

// Continue sends a SIGCONT to every process in group g.
func Continue(g int) error {
	return kill(g, unix.SIGCONT)
}

// Decode converts a wait status into a shell exit status. A process killed
// by signal n reports 128+n.
func Decode(ws unix.WaitStatus) Status {
	switch {
	case ws.Exited():
		return Status{Code: ws.ExitStatus()}

	case ws.Signaled():
		return Status{Code: 128 + int(ws.Signal()), Signal: ws.Signal()}

	case ws.Stopped():
		return Status{Code: 128 + int(ws.StopSignal()), Signal: ws.StopSignal(), Stopped: true}
	}

	return Status{Code: 1}
}

// ForegroundGroup returns the foreground group ID of the terminal fd.
func ForegroundGroup(fd int) (int, error) {
	g, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "tcgetpgrp"), "fd", fd)
	}

	return g, nil
}

// Group returns the group ID for the current process.
func Group() int {
	return group
}

// Hangup sends a SIGHUP to every process in group g.
func Hangup(g int) error {
	return kill(g, unix.SIGHUP)
}

// ID returns the process ID for the current process.
func ID() int {
	return id
}

// SetForegroundGroup makes g the foreground group of the terminal fd.
func SetForegroundGroup(fd, g int) error {
	err := unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, g)
	if err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "tcsetpgrp"), "fd", fd), "group", g)
	}

	return nil
}

// SysProcAttr returns the attributes for a job's only process. The process
// is placed in a new group whose ID is its own PID. When foreground is true
// it also makes that group the foreground group of ctty before exec.
func SysProcAttr(foreground bool, ctty int) *unix.SysProcAttr {
	sys := &unix.SysProcAttr{Setpgid: true}

	if foreground {
		sys.Foreground = true
		sys.Ctty = ctty
	}

	return sys
}

// Wait blocks until pid exits, is killed or stops.
func Wait(pid int) (Status, error) {
	var ws unix.WaitStatus

	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return Status{}, zerr.With(zerr.Wrap(err, "wait4"), "pid", pid)
		}

		return Decode(ws), nil
	}
}

func kill(g int, sig unix.Signal) error {
	err := unix.Kill(-g, sig)
	if err != nil {
		return zerr.With(zerr.With(zerr.Wrap(err, "kill"), "group", g), "signal", sig.String())
	}

	return nil
}
