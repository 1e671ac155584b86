// Released under an MIT license. See LICENSE.

package wordcount

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Runner counts the words in each file into a shared table.
type Runner interface {
	Run(ctx context.Context, files []string, shared *Table) error
}

// Count runs r over files, or counts stdin directly if there are none.
func Count(ctx context.Context, r Runner, files []string, stdin io.Reader, shared *Table) error {
	if len(files) > 0 {
		return r.Run(ctx, files, shared)
	}

	local := New()

	err := CountWords(reader{ctx, stdin}, local)
	if err != nil {
		return err
	}

	shared.Merge(local)

	return nil
}

// Worker counts the words in file and writes the partial counts to w.
func Worker(ctx context.Context, file string, w io.Writer) error {
	local := New()

	err := countFile(ctx, file, local)
	if err != nil {
		return err
	}

	return local.Fprint(w, LessCount)
}

// ThreadRunner counts each file in its own goroutine.
type ThreadRunner struct{}

var _ Runner = ThreadRunner{}

func (ThreadRunner) Run(ctx context.Context, files []string, shared *Table) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, file := range files {
		g.Go(func() error {
			local := New()

			err := countFile(ctx, file, local)
			if err != nil {
				return err
			}

			shared.Merge(local)

			return nil
		})
	}

	return g.Wait()
}

// ProcessRunner counts each file in a child process. Command returns the
// command that runs Worker for file with its output on stdout.
type ProcessRunner struct {
	Command func(ctx context.Context, file string) *exec.Cmd
	Log     *logger.Logger
}

var _ Runner = ProcessRunner{}

// Executable returns a Command that re-runs the current program with
// flag set to the file name.
func Executable(flag string) (func(ctx context.Context, file string) *exec.Cmd, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "could not find executable")
	}

	return func(ctx context.Context, file string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, path, flag+"="+file)
		cmd.Stderr = os.Stderr

		return cmd
	}, nil
}

func (p ProcessRunner) Run(ctx context.Context, files []string, shared *Table) error {
	log := p.Log
	if log == nil {
		log = logger.Discard()
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, file := range files {
		g.Go(func() error {
			cmd := p.Command(ctx, file)

			stdout, err := cmd.StdoutPipe()
			if err != nil {
				return zerr.With(zerr.Wrap(err, "could not create pipe"), "file", file)
			}

			err = cmd.Start()
			if err != nil {
				return zerr.With(zerr.Wrap(err, "could not start worker"), "file", file)
			}

			log.Debug("worker started", "file", file, "pid", cmd.Process.Pid)

			rerr := shared.ReadCounts(stdout, log)
			if rerr != nil {
				// Unblock the worker so that it can exit.
				_, _ = io.Copy(io.Discard, stdout)
			}

			err = cmd.Wait()
			if err != nil {
				return zerr.With(zerr.Wrap(err, "worker failed"), "file", file)
			}

			return rerr
		})
	}

	return g.Wait()
}

func countFile(ctx context.Context, file string, t *Table) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "could not open"), "file", file)
	}
	defer f.Close()

	err = CountWords(reader{ctx, f}, t)
	if err != nil {
		return zerr.With(err, "file", file)
	}

	return nil
}

type reader struct {
	ctx context.Context
	r   io.Reader
}

func (r reader) Read(p []byte) (int, error) {
	err := r.ctx.Err()
	if err != nil {
		return 0, err
	}

	return r.r.Read(p)
}
