// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

// Package job launches external commands in their own process group and
// hands them the terminal while they run.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/michaelmacinnis/adapted"
	"github.com/michaelmacinnis/jobsh/internal/system/cache"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/system/process"
	"github.com/michaelmacinnis/jobsh/internal/system/redirect"
	"github.com/michaelmacinnis/jobsh/internal/system/terminal"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

// Exit statuses for jobs that never ran.
const (
	StatusOpenFailed    = 1
	StatusSyntax        = 2
	StatusNotExecutable = 126
	StatusNotFound      = 127
)

// ErrStart is returned when the operating system refuses to run a program.
var ErrStart = zerr.New("cannot start")

// Error is a failure to launch a job along with the exit status it implies.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolver maps a command name to the path of an executable.
type Resolver interface {
	Resolve(name string) (string, error)
}

// Streams are the files a job inherits when it is not redirected.
type Streams struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Job is a single external command running in its own process group.
type Job struct {
	Args   []string
	Group  int
	Input  string
	Output string
	Path   string
	Pid    int
	Status process.Status
}

// String formats the job's command line.
func (j *Job) String() string {
	words := make([]string, 0, len(j.Args)+4)
	for _, arg := range j.Args {
		words = append(words, quote(arg))
	}

	if j.Input != "" {
		words = append(words, "<", quote(j.Input))
	}

	if j.Output != "" {
		words = append(words, ">", quote(j.Output))
	}

	return strings.Join(words, " ")
}

// Launcher runs one foreground job at a time.
type Launcher struct {
	log      *logger.Logger
	resolver Resolver
	streams  Streams
	terminal terminal.Controller

	mu      sync.Mutex
	stopped []*Job
}

// New returns a Launcher that transfers t to each job it runs.
func New(t terminal.Controller, r Resolver, s Streams, l *logger.Logger) *Launcher {
	return &Launcher{
		log:      l,
		resolver: r,
		streams:  s,
		terminal: t,
	}
}

// Close hangs up every job that was stopped and never resumed.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error

	for _, j := range l.stopped {
		l.log.Debug("hangup", "pid", j.Pid, "command", j.String())

		err := process.Hangup(j.Group)
		if err == nil {
			err = process.Continue(j.Group)
		}

		if err != nil && !errors.Is(err, unix.ESRCH) {
			errs = append(errs, err)
		}
	}

	l.stopped = nil

	return errors.Join(errs...)
}

// Launch runs args as a foreground job and waits for it to exit or stop.
func (l *Launcher) Launch(ctx context.Context, args []string) (*Job, error) {
	r, err := redirect.Resolve(args)
	if err != nil {
		return nil, &Error{Status: StatusSyntax, Err: err}
	}

	path, err := l.resolver.Resolve(r.Args[0])
	if err != nil {
		status := StatusNotFound
		if errors.Is(err, cache.ErrNotExecutable) {
			status = StatusNotExecutable
		}

		return nil, &Error{Status: status, Err: err}
	}

	j := &Job{
		Args:   r.Args,
		Input:  r.Input,
		Output: r.Output,
		Path:   path,
	}

	files, err := l.files(r)
	if err != nil {
		return nil, &Error{Status: StatusOpenFailed, Err: err}
	}

	err = ctx.Err()
	if err != nil {
		closeAll(l.owned(files))

		return nil, err
	}

	err = l.start(j, files)
	if err != nil {
		return nil, err
	}

	l.wait(j)

	return j, nil
}

// Run launches args and returns its exit status. Launch failures are
// reported on the shell's standard error.
func (l *Launcher) Run(ctx context.Context, args []string) int {
	j, err := l.Launch(ctx, args)
	if err != nil {
		l.report(err)

		var e *Error
		if errors.As(err, &e) {
			return e.Status
		}

		return 1
	}

	return j.Status.Code
}

// Stopped returns the jobs that are currently stopped.
func (l *Launcher) Stopped() []*Job {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]*Job(nil), l.stopped...)
}

// files opens the job's redirections. Entries are the job's standard
// input, output and error. Only the first two may be owned by the launcher.
func (l *Launcher) files(r redirect.Redirection) ([]*os.File, error) {
	files := []*os.File{l.streams.Stdin, l.streams.Stdout, l.streams.Stderr}

	if r.HasInput() {
		f, err := os.Open(r.Input)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "redirect input"), "path", r.Input)
		}

		files[0] = f
	}

	if r.HasOutput() {
		f, err := os.OpenFile(r.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			if r.HasInput() {
				_ = files[0].Close()
			}

			return nil, zerr.With(zerr.Wrap(err, "redirect output"), "path", r.Output)
		}

		files[1] = f
	}

	return files, nil
}

func (l *Launcher) owned(files []*os.File) []*os.File {
	owned := []*os.File{}

	if files[0] != l.streams.Stdin {
		owned = append(owned, files[0])
	}

	if files[1] != l.streams.Stdout {
		owned = append(owned, files[1])
	}

	return owned
}

func (l *Launcher) report(err error) {
	var e *Error
	if errors.As(err, &e) && e.Status == StatusSyntax {
		fmt.Fprintf(l.streams.Stderr, "jobsh: syntax error: %v\n", err)
	} else {
		fmt.Fprintf(l.streams.Stderr, "jobsh: %v\n", err)
	}

	l.log.Error(err)
}

func (l *Launcher) start(j *Job, files []*os.File) error {
	defer closeAll(l.owned(files))

	attr := &os.ProcAttr{
		Files: files,
		Sys:   process.SysProcAttr(l.terminal.Interactive(), l.terminal.Fd()),
	}

	p, err := os.StartProcess(j.Path, j.Args, attr)
	if err != nil {
		status := StatusNotExecutable
		if errors.Is(err, os.ErrNotExist) {
			status = StatusNotFound
		}

		err = zerr.With(zerr.Wrap(ErrStart, err.Error()), "path", j.Path)

		return &Error{Status: status, Err: err}
	}

	j.Pid = p.Pid
	j.Group = p.Pid

	// The pid is reaped with wait4, not through p.
	_ = p.Release()

	l.log.Debug("started", "pid", j.Pid, "command", j.String())

	return nil
}

func (l *Launcher) wait(j *Job) {
	defer func() {
		err := l.terminal.Reclaim()
		if err != nil {
			l.log.Warn("reclaim terminal", "error", err)
		}
	}()

	err := l.terminal.HandTo(j.Group)
	if err != nil {
		l.log.Warn("hand terminal to job", "pid", j.Pid, "error", err)
	}

	status, err := process.Wait(j.Pid)
	if err != nil {
		l.log.Error(err)

		j.Status = process.Status{Code: 1}

		return
	}

	j.Status = status

	l.log.Debug("finished", "pid", j.Pid, "status", status.Code, "stopped", status.Stopped)

	if status.Stopped {
		l.mu.Lock()
		l.stopped = append(l.stopped, j)
		l.mu.Unlock()

		fmt.Fprintf(l.streams.Stderr, "\n[%d]+  Stopped\t%s\n", j.Pid, j)
	}
}

func closeAll(files []*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func quote(s string) string {
	q := adapted.CanonicalString(s)

	if s == "" || strings.ContainsAny(s, " <>") || q[2:len(q)-1] != s {
		return q
	}

	return s
}
