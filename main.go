// Released under an MIT license. See LICENSE.

//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

/*
Jobsh is a small Unix shell with job control.

Each line is split into words, with quotes honoured. The first word names
a builtin or a command found on $PATH:

	ls -l
	sort < names.txt > sorted.txt
	cd /tmp
	pwd
	?
	exit 3

Interactively, each command is given the terminal while it runs and the
shell takes it back when the command exits or stops. A stopped command is
sent SIGHUP and SIGCONT when the shell exits.

Jobsh is released under an MIT-style license.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/michaelmacinnis/jobsh/internal/builtin"
	"github.com/michaelmacinnis/jobsh/internal/shell"
	"github.com/michaelmacinnis/jobsh/internal/system/cache"
	"github.com/michaelmacinnis/jobsh/internal/system/config"
	"github.com/michaelmacinnis/jobsh/internal/system/history"
	"github.com/michaelmacinnis/jobsh/internal/system/job"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/system/options"
	"github.com/michaelmacinnis/jobsh/internal/system/signals"
	"github.com/michaelmacinnis/jobsh/internal/system/terminal"
	"github.com/michaelmacinnis/jobsh/internal/ui"
	"github.com/spf13/afero"
)

var version = "jobsh 0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := options.Parse(argv, version)
	if err != nil {
		return fail(err)
	}

	cfg, err := config.Load(afero.NewOsFs(), opts.Config)
	if err != nil {
		return fail(err)
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return fail(err)
	}

	policy := signals.New()
	defer policy.Release()

	t := terminal.Detached()

	if opts.Terminal {
		policy.Shell()

		t, err = terminal.Initialize(os.Stdin, policy)
		if err != nil {
			return fail(err)
		}
	}

	resolver := cache.OS()
	streams := job.Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}

	launcher := job.New(t, resolver, streams, log)
	defer func() {
		log.Error(launcher.Close())
	}()

	builtins := builtin.New()

	log.Info("started", "pid", os.Getpid(), "terminal", t.Interactive(), "interactive", opts.Interactive)

	c := shell.Config{
		Builtins: builtins,
		Launcher: launcher,
		Logger:   log,
		Stderr:   os.Stderr,
		Stdout:   os.Stdout,
	}

	if opts.Command != "" {
		status := shell.New(c).Execute(context.Background(), opts.Command)

		log.Info("exiting", "status", status)

		return status
	}

	c.Reader, err = reader(opts, cfg, t, shell.Completer(builtins, resolver.Commands))
	if err != nil {
		return fail(err)
	}

	defer func() {
		log.Error(c.Reader.Close())
	}()

	if opts.Interactive {
		c.Prompt = cfg.PromptFor
	}

	status := shell.New(c).Run(context.Background())

	log.Info("exiting", "status", status)

	return status
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "jobsh: %v\n", err)

	return 1
}

func reader(opts *options.Options, cfg *config.Config, t terminal.Controller, complete func(string) []string) (ui.Reader, error) {
	if opts.Interactive && t.Interactive() {
		return ui.NewTerminal(history.New(cfg.History), complete)
	}

	var prompt io.Writer
	if opts.Interactive {
		prompt = os.Stderr
	}

	return ui.NewPlain(os.Stdin, prompt), nil
}
