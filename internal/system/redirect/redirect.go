// Released under an MIT license. See LICENSE.

// Package redirect separates input and output redirections from a command.
package redirect

import (
	"go.trai.ch/zerr"
)

const (
	input  = "<"
	output = ">"
)

var (
	// ErrDuplicateRedirect is returned when the same stream is redirected twice.
	ErrDuplicateRedirect = zerr.New("duplicate redirection")

	// ErrEmptyCommand is returned when nothing but redirections remain.
	ErrEmptyCommand = zerr.New("missing command")

	// ErrMissingTarget is returned when an operator has no filename.
	ErrMissingTarget = zerr.New("missing filename")
)

// Redirection is a command with its redirections removed.
type Redirection struct {
	Args   []string
	Input  string
	Output string
}

// HasInput reports whether standard input is redirected.
func (r Redirection) HasInput() bool {
	return r.Input != ""
}

// HasOutput reports whether standard output is redirected.
func (r Redirection) HasOutput() bool {
	return r.Output != ""
}

// Resolve scans args for "<" and ">" tokens. Each must be followed by a
// non-empty filename that is not itself an operator. Operators and
// filenames are removed from the returned Args. No files are opened.
func Resolve(args []string) (Redirection, error) {
	r := Redirection{Args: make([]string, 0, len(args))}

	for i := 0; i < len(args); i++ {
		op := args[i]
		if op != input && op != output {
			r.Args = append(r.Args, op)

			continue
		}

		if i+1 == len(args) || operand(args[i+1]) {
			return Redirection{}, located(ErrMissingTarget, op, i)
		}

		i++

		target := &r.Output
		if op == input {
			target = &r.Input
		}

		if *target != "" {
			return Redirection{}, located(ErrDuplicateRedirect, op, i-1)
		}

		*target = args[i]
	}

	if len(r.Args) == 0 {
		return Redirection{}, ErrEmptyCommand
	}

	return r, nil
}

func operand(s string) bool {
	return s == "" || s == input || s == output
}

func located(err error, op string, position int) error {
	return zerr.With(zerr.With(zerr.Wrap(err, op), "operator", op), "position", position)
}
