// Released under an MIT license. See LICENSE.

// Package ui reads command lines from a terminal or from a plain stream.
package ui

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/michaelmacinnis/jobsh/internal/system/history"
	"github.com/peterh/liner"
	"go.trai.ch/zerr"
)

// ErrInterrupted is returned when the user abandons the current line.
var ErrInterrupted = zerr.New("interrupted")

// Reader is a source of command lines.
type Reader interface {
	// ReadLine returns the next line without its newline. It returns
	// io.EOF when there are no more lines.
	ReadLine(prompt string) (string, error)

	Close() error
}

// Plain reads lines from a stream and writes each prompt to w, if w is
// non-nil.
type Plain struct {
	r *bufio.Reader
	w io.Writer
}

var _ Reader = (*Plain)(nil)

// NewPlain returns a Reader for r.
func NewPlain(r io.Reader, w io.Writer) *Plain {
	return &Plain{r: bufio.NewReader(r), w: w}
}

func (p *Plain) Close() error {
	return nil
}

func (p *Plain) ReadLine(prompt string) (string, error) {
	if p.w != nil && prompt != "" {
		_, err := io.WriteString(p.w, prompt)
		if err != nil {
			return "", err
		}
	}

	line, err := p.r.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}

	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// Terminal is a line editor with history and completion.
type Terminal struct {
	cli      *liner.State
	cooked   liner.ModeApplier
	history  *history.File
	uncooked liner.ModeApplier
}

var _ Reader = (*Terminal)(nil)

// NewTerminal puts the terminal under the line editor's control. The
// terminal modes in effect when it is called are restored around every
// command so that jobs see a cooked terminal.
func NewTerminal(h *history.File, complete func(line string) []string) (*Terminal, error) {
	cooked, err := liner.TerminalMode()
	if err != nil {
		return nil, zerr.Wrap(err, "read terminal mode")
	}

	cli := liner.NewLiner()

	uncooked, err := liner.TerminalMode()
	if err != nil {
		_ = cli.Close()

		return nil, zerr.Wrap(err, "read line editor mode")
	}

	cli.SetCtrlCAborts(true)

	if complete != nil {
		cli.SetCompleter(complete)
	}

	t := &Terminal{
		cli:      cli,
		cooked:   cooked,
		history:  h,
		uncooked: uncooked,
	}

	err = h.Load(cli.ReadHistory)
	if err != nil {
		_ = cli.Close()

		return nil, err
	}

	return t, nil
}

// Close saves the history and releases the terminal.
func (t *Terminal) Close() error {
	err := t.history.Save(t.cli.WriteHistory)

	return errors.Join(err, t.cli.Close())
}

func (t *Terminal) ReadLine(prompt string) (string, error) {
	err := t.uncooked.ApplyMode()
	if err != nil {
		return "", zerr.Wrap(err, "enter line editor mode")
	}

	line, err := t.cli.Prompt(prompt)

	merr := t.cooked.ApplyMode()
	if merr != nil {
		return "", zerr.Wrap(merr, "restore terminal mode")
	}

	switch {
	case err == nil:
		if strings.TrimSpace(line) != "" {
			t.cli.AppendHistory(line)
		}

		return line, nil

	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrInterrupted
	}

	return "", err
}
