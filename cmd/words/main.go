// Released under an MIT license. See LICENSE.

// Command words counts the words in its input files.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelmacinnis/jobsh/cmd/words/commands"
	"github.com/michaelmacinnis/jobsh/internal/system/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log, err := logger.New(os.Stderr, os.Getenv("WORDS_LOG_LEVEL"))
	if err != nil {
		_, _ = os.Stderr.WriteString("words: " + err.Error() + "\n")

		return 1
	}

	cli := commands.New(os.Stdin, os.Stdout, log)

	err = cli.Execute(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, context.Canceled) {
		return 130
	}

	_, _ = os.Stderr.WriteString("words: " + err.Error() + "\n")

	return 1
}
