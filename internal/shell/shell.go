// Released under an MIT license. See LICENSE.

// Package shell reads command lines and runs each one as a builtin or a job.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/michaelmacinnis/jobsh/internal/builtin"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/ui"
)

// StatusSyntax is the status of a line that cannot be tokenized.
const StatusSyntax = 2

// Launcher runs external commands.
type Launcher interface {
	Run(ctx context.Context, args []string) int
}

// Config is what a Shell is built from. A nil Prompt disables prompting.
type Config struct {
	Builtins *builtin.Table
	Launcher Launcher
	Logger   *logger.Logger
	Prompt   func(line int) string
	Reader   ui.Reader
	Stderr   io.Writer
	Stdout   io.Writer
}

// Shell is a read loop over command lines.
type Shell struct {
	builtins *builtin.Table
	launcher Launcher
	log      *logger.Logger
	prompt   func(line int) string
	reader   ui.Reader
	stderr   io.Writer
	stdout   io.Writer

	exited bool
	line   int
	status int
}

var _ builtin.Shell = (*Shell)(nil)

// New returns a Shell for c.
func New(c Config) *Shell {
	return &Shell{
		builtins: c.Builtins,
		launcher: c.Launcher,
		log:      c.Logger,
		prompt:   c.Prompt,
		reader:   c.Reader,
		stderr:   c.Stderr,
		stdout:   c.Stdout,
	}
}

// Execute tokenizes and runs a single line, returning its status. Blank
// lines leave the status unchanged.
func (s *Shell) Execute(ctx context.Context, line string) int {
	args, err := shlex.Split(line, true)
	if err != nil {
		fmt.Fprintf(s.stderr, "jobsh: syntax error: %v\n", err)

		s.status = StatusSyntax

		return s.status
	}

	if len(args) == 0 {
		return s.status
	}

	if b, ok := s.builtins.Lookup(args[0]); ok {
		s.log.Debug("builtin", "name", b.Name)

		s.status = b.Run(s, args)
	} else {
		s.status = s.launcher.Run(ctx, args)
	}

	return s.status
}

// Exit ends the read loop with status.
func (s *Shell) Exit(status int) {
	s.exited = true
	s.status = status
}

// Run reads and executes lines until exit is run or input ends. It
// returns the shell's exit status.
func (s *Shell) Run(ctx context.Context) int {
	for !s.exited {
		prompt := ""
		if s.prompt != nil {
			prompt = s.prompt(s.line)
		}

		line, err := s.reader.ReadLine(prompt)
		if errors.Is(err, ui.ErrInterrupted) {
			continue
		} else if errors.Is(err, io.EOF) {
			if s.prompt != nil {
				fmt.Fprintln(s.stdout, "exit")
			}

			break
		} else if err != nil {
			s.log.Error(err)
			fmt.Fprintf(s.stderr, "jobsh: %v\n", err)

			return 1
		}

		s.Execute(ctx, line)

		s.line++
	}

	return s.status
}

func (s *Shell) Status() int {
	return s.status
}

func (s *Shell) Stderr() io.Writer {
	return s.stderr
}

func (s *Shell) Stdout() io.Writer {
	return s.stdout
}

// Completer completes the command word of a line from the builtins and the
// executables found by commands.
func Completer(b *builtin.Table, commands func(prefix string) []string) func(line string) []string {
	return func(line string) []string {
		if strings.ContainsAny(line, " \t") {
			return nil
		}

		seen := map[string]struct{}{}

		for _, name := range b.Names() {
			if strings.HasPrefix(name, line) {
				seen[name] = struct{}{}
			}
		}

		for _, name := range commands(line) {
			seen[name] = struct{}{}
		}

		cs := make([]string, 0, len(seen))
		for name := range seen {
			cs = append(cs, name+" ")
		}

		sort.Strings(cs)

		return cs
	}
}
