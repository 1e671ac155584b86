// Released under an MIT license. See LICENSE.

// Package options parses jobsh's command line.
package options

import (
	"os"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
	"go.trai.ch/zerr"
)

const usage = `jobsh

Usage:
  jobsh [-i] [--config=FILE]
  jobsh -c COMMAND [--config=FILE]
  jobsh -h
  jobsh -v

Options:
  -c, --command=COMMAND  Run the specified command and exit.
  -i, --interactive      Invert prompting and line editing.
  --config=FILE          Read configuration from FILE.
  -h, --help             Display this help.
  -v, --version          Print jobsh version.

If jobsh's stdin is a TTY, job control is enabled. If, in addition, no
command is given, prompts and line editing are enabled.
`

// Options is jobsh's parsed command line.
type Options struct {
	Command     string
	Config      string
	Interactive bool

	// Terminal is true when stdin is a terminal that jobs must be given.
	Terminal bool
}

// Parse parses argv, exiting after printing help, the version or a usage
// error.
func Parse(argv []string, version string) (*Options, error) {
	return parse(docopt.DefaultParser, argv, version, isatty.IsTerminal(os.Stdin.Fd()))
}

func parse(p *docopt.Parser, argv []string, version string, terminal bool) (*Options, error) {
	opts, err := p.ParseArgs(usage, argv, version)
	if err != nil {
		return nil, zerr.Wrap(err, "parse arguments")
	}

	o := &Options{Terminal: terminal}

	o.Command, _ = opts.String("--command")
	o.Config, _ = opts.String("--config")

	invert, _ := opts.Bool("--interactive")
	o.Interactive = (o.Command == "" && terminal) != invert

	return o, nil
}
