// Released under an MIT license. See LICENSE.

// Package builtin holds the commands the shell runs itself.
package builtin

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// Shell is the part of the shell that builtins act on.
type Shell interface {
	Exit(status int)
	Status() int
	Stderr() io.Writer
	Stdout() io.Writer
}

// Builtin is a named command run in the shell's own process.
type Builtin struct {
	Name string
	Help string
	Run  func(sh Shell, args []string) int
}

// Table is an ordered set of builtins.
type Table struct {
	builtins []Builtin
}

// New returns the shell's builtins.
func New() *Table {
	t := &Table{}

	t.builtins = []Builtin{
		{"?", "show this help menu", t.help},
		{"exit", "exit the command shell", exit},
		{"pwd", "prints the current working directory", pwd},
		{"cd", "changes the current working directory to new directory", cd},
	}

	return t
}

// Help writes one line per builtin.
func (t *Table) Help(w io.Writer) {
	for _, b := range t.builtins {
		fmt.Fprintf(w, "%s - %s\n", b.Name, b.Help)
	}
}

// Lookup returns the builtin called name.
func (t *Table) Lookup(name string) (Builtin, bool) {
	for _, b := range t.builtins {
		if b.Name == name {
			return b, true
		}
	}

	return Builtin{}, false
}

// Names returns the builtin names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.builtins))
	for i, b := range t.builtins {
		names[i] = b.Name
	}

	return names
}

func (t *Table) help(sh Shell, _ []string) int {
	t.Help(sh.Stdout())

	return 0
}

func cd(sh Shell, args []string) int {
	switch len(args) {
	case 1:
		fmt.Fprintln(sh.Stderr(), "cd: missing argument")

		return 1
	case 2:
	default:
		fmt.Fprintln(sh.Stderr(), "cd: too many arguments")

		return 1
	}

	err := os.Chdir(args[1])
	if err != nil {
		fmt.Fprintf(sh.Stderr(), "cd: %v\n", err)

		return 1
	}

	if wd, err := os.Getwd(); err == nil {
		_ = os.Setenv("PWD", wd)
	}

	return 0
}

func exit(sh Shell, args []string) int {
	status := sh.Status()

	switch len(args) {
	case 1:
	case 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(sh.Stderr(), "exit: %s: numeric argument required\n", args[1])

			n = 2
		}

		status = n & 0xff
	default:
		fmt.Fprintln(sh.Stderr(), "exit: too many arguments")

		return 1
	}

	sh.Exit(status)

	return status
}

func pwd(sh Shell, _ []string) int {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(sh.Stderr(), "pwd: %v\n", err)

		return 1
	}

	fmt.Fprintln(sh.Stdout(), wd)

	return 0
}
