// Released under an MIT license. See LICENSE.

// Package commands implements the words command line.
package commands

import (
	"context"
	"io"
	"os/exec"

	"github.com/michaelmacinnis/jobsh/internal/system/logger"
	"github.com/michaelmacinnis/jobsh/internal/wordcount"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

// WorkerFlag makes words write the partial counts for one file instead of
// counting its arguments. Process workers are started with it.
const WorkerFlag = "--worker"

// ErrSubstrate is returned for an unknown --substrate value.
var ErrSubstrate = zerr.New("unknown substrate")

// CLI is the words command line.
type CLI struct {
	log     *logger.Logger
	rootCmd *cobra.Command
	stdin   io.Reader
	stdout  io.Writer
	worker  func(ctx context.Context, file string) *exec.Cmd
}

// New returns a CLI that reads stdin when given no files and writes the
// counts to stdout.
func New(stdin io.Reader, stdout io.Writer, log *logger.Logger) *CLI {
	c := &CLI{
		log:    log,
		stdin:  stdin,
		stdout: stdout,
	}

	rootCmd := &cobra.Command{
		Use:           "words [FILE...]",
		Short:         "Count the words in each file",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("worker") {
				file, _ := cmd.Flags().GetString("worker")

				return wordcount.Worker(cmd.Context(), file, c.stdout)
			}

			substrate, _ := cmd.Flags().GetString("substrate")

			return c.count(cmd.Context(), substrate, args)
		},
	}

	rootCmd.Flags().StringP("substrate", "s", "thread", "Count files in threads or processes (thread|process)")
	rootCmd.Flags().String("worker", "", "Write the partial counts for one file")
	_ = rootCmd.Flags().MarkHidden("worker")

	rootCmd.SetOut(stdout)

	c.rootCmd = rootCmd

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)

	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetWorker replaces the command used to start process workers. Used for
// testing.
func (c *CLI) SetWorker(worker func(ctx context.Context, file string) *exec.Cmd) {
	c.worker = worker
}

func (c *CLI) count(ctx context.Context, substrate string, files []string) error {
	runner, err := c.runner(substrate)
	if err != nil {
		return err
	}

	shared := wordcount.New()

	err = wordcount.Count(ctx, runner, files, c.stdin, shared)
	if err != nil {
		return err
	}

	c.log.Debug("counted", "substrate", substrate, "files", len(files), "words", shared.Len())

	return shared.Fprint(c.stdout, wordcount.LessCount)
}

func (c *CLI) runner(substrate string) (wordcount.Runner, error) {
	switch substrate {
	case "thread":
		return wordcount.ThreadRunner{}, nil

	case "process":
		worker := c.worker
		if worker == nil {
			var err error

			worker, err = wordcount.Executable(WorkerFlag)
			if err != nil {
				return nil, err
			}
		}

		return wordcount.ProcessRunner{Command: worker, Log: c.log}, nil
	}

	return nil, zerr.With(zerr.Wrap(ErrSubstrate, substrate), "substrate", substrate)
}
