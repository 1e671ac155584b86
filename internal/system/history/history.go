// Released under an MIT license. See LICENSE.

// Package history persists the interactive command history.
package history

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"go.trai.ch/zerr"
)

// File is a history file. The zero value keeps no history.
type File struct {
	path string
}

// New returns the history file at path. An empty path selects the default.
func New(path string) *File {
	if path == "" {
		path = defaultPath()
	}

	return &File{path: path}
}

// Path is the file's location.
func (h *File) Path() string {
	return h.path
}

// Load passes the history file to read. A missing file is not an error.
func (h *File) Load(read func(r io.Reader) (int, error)) error {
	if h.path == "" {
		return nil
	}

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return zerr.With(zerr.Wrap(err, "load history"), "path", h.path)
	}

	defer f.Close()

	_, err = read(f)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "load history"), "path", h.path)
	}

	return nil
}

// Save replaces the history file with what write produces.
func (h *File) Save(write func(w io.Writer) (int, error)) error {
	if h.path == "" {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "save history"), "path", h.path)
	}

	_, err = write(f)
	if err != nil {
		_ = f.Close()

		return zerr.With(zerr.Wrap(err, "save history"), "path", h.path)
	}

	return f.Close()
}
