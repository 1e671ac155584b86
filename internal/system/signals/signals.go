// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package signals holds the shell's signal dispositions.
//
// The shell must not be interrupted, stopped or suspended by the terminal
// while a job runs in the foreground. Those signals are caught and dropped
// rather than ignored: the runtime resets caught signals to their default
// disposition in a forked child before exec, while ignored signals would
// stay ignored in every job.
package signals

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

//nolint:gochecknoglobals
var shell = []os.Signal{unix.SIGINT, unix.SIGTSTP, unix.SIGTTOU}

// Policy installs and removes the shell-level dispositions.
type Policy struct {
	mu sync.Mutex

	done      chan struct{}
	installed bool
	sink      chan os.Signal
}

// New returns a Policy that has not yet been applied.
func New() *Policy {
	return &Policy{}
}

// Installed reports whether the shell-level dispositions are in effect.
func (p *Policy) Installed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.installed
}

// Release restores the default dispositions for the shell's signals.
func (p *Policy) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.installed {
		return
	}

	signal.Reset(shell...)
	close(p.done)

	p.installed = false
}

// Shell stops SIGINT, SIGTSTP and SIGTTOU from affecting the shell.
func (p *Policy) Shell() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.installed {
		return
	}

	p.done = make(chan struct{})
	p.sink = make(chan os.Signal, len(shell)+1)

	signal.Notify(p.sink, shell...)

	go drain(p.sink, p.done)

	p.installed = true
}

// WithoutTTOU runs fn with SIGTTOU ignored. A process that changes the
// terminal's foreground group from the background is otherwise stopped.
func (p *Policy) WithoutTTOU(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	signal.Ignore(unix.SIGTTOU)

	defer func() {
		if p.installed {
			signal.Notify(p.sink, unix.SIGTTOU)
		} else {
			signal.Reset(unix.SIGTTOU)
		}
	}()

	return fn()
}

func drain(c chan os.Signal, done chan struct{}) {
	for {
		select {
		case <-c:
		case <-done:
			return
		}
	}
}
