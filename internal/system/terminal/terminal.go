// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

// Package terminal tracks which process group owns the controlling terminal.
package terminal

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/michaelmacinnis/jobsh/internal/system/process"
	"github.com/michaelmacinnis/jobsh/internal/system/signals"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// Controller transfers the terminal between the shell and a job.
//
//go:generate mockgen -source=terminal.go -destination=mocks/mock_terminal.go -package=mocks
type Controller interface {
	// Interactive reports whether there is a terminal to transfer.
	Interactive() bool

	// Fd is the terminal's file descriptor in the shell.
	Fd() int

	// HandTo makes group the terminal's foreground group.
	HandTo(group int) error

	// Reclaim puts the shell back in the foreground and restores the
	// terminal modes saved when the shell started.
	Reclaim() error
}

// State is the shell's view of its controlling terminal.
type State struct {
	fd          int
	group       int
	interactive bool
	modes       *unix.Termios
	policy      *signals.Policy
}

var _ Controller = (*State)(nil)

// Detached returns a State for a shell that does not manage a terminal.
func Detached() *State {
	return &State{fd: -1, group: process.Group()}
}

// Initialize takes control of the terminal f for the shell. If f is not a
// terminal the returned State is non-interactive and every transfer is a
// no-op.
func Initialize(f *os.File, policy *signals.Policy) (*State, error) {
	s := &State{
		fd:     int(f.Fd()),
		group:  process.Group(),
		policy: policy,
	}

	if !isatty.IsTerminal(f.Fd()) {
		return s, nil
	}

	err := policy.WithoutTTOU(func() error {
		return process.BecomeForegroundGroup(s.fd)
	})
	if err != nil {
		return nil, zerr.Wrap(err, "take control of terminal")
	}

	s.group = process.Group()

	s.modes, err = unix.IoctlGetTermios(s.fd, getTermios)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "save terminal modes"), "fd", s.fd)
	}

	s.interactive = true

	return s, nil
}

func (s *State) Fd() int {
	return s.fd
}

// Group is the shell's process group.
func (s *State) Group() int {
	return s.group
}

func (s *State) HandTo(group int) error {
	if !s.interactive {
		return nil
	}

	return s.policy.WithoutTTOU(func() error {
		return process.SetForegroundGroup(s.fd, group)
	})
}

func (s *State) Interactive() bool {
	return s.interactive
}

func (s *State) Reclaim() error {
	if !s.interactive {
		return nil
	}

	return s.policy.WithoutTTOU(func() error {
		err := process.SetForegroundGroup(s.fd, s.group)
		if err != nil {
			return err
		}

		err = unix.IoctlSetTermios(s.fd, setTermios, s.modes)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "restore terminal modes"), "fd", s.fd)
		}

		return nil
	})
}
