// Released under an MIT license. See LICENSE.

// Package cache resolves command names to executables on the search path.
package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"
)

var (
	// ErrNotFound is returned when no candidate exists.
	ErrNotFound = zerr.New("command not found")

	// ErrNotExecutable is returned when a candidate exists but cannot be run.
	ErrNotExecutable = zerr.New("permission denied")
)

// Resolver finds executables on a search path.
type Resolver struct {
	fs   afero.Fs
	path func() string
}

// New returns a Resolver that searches the directories returned by path.
func New(filesystem afero.Fs, path func() string) *Resolver {
	return &Resolver{fs: filesystem, path: path}
}

// OS returns a Resolver over the real filesystem and $PATH.
func OS() *Resolver {
	return New(afero.NewOsFs(), func() string {
		return os.Getenv("PATH")
	})
}

// Commands returns the sorted, distinct names of executables on the search
// path that start with prefix.
func (r *Resolver) Commands(prefix string) []string {
	seen := map[string]struct{}{}

	for _, dirname := range r.dirnames() {
		for _, name := range r.Executables(dirname) {
			if strings.HasPrefix(name, prefix) {
				seen[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Executables returns the names of executable files in dirname.
func (r *Resolver) Executables(dirname string) []string {
	infos, err := afero.ReadDir(r.fs, dirname)
	if err != nil {
		return nil
	}

	e := []string{}

	for _, i := range infos {
		if !i.IsDir() && i.Mode()&0o111 != 0 {
			e = append(e, i.Name())
		}
	}

	return e
}

// Resolve returns the path of the executable that name refers to. A name
// containing a slash is used as is. Otherwise each directory on the search
// path is tried in order and the first executable match wins.
func (r *Resolver) Resolve(name string) (string, error) {
	if strings.Contains(name, "/") {
		err := r.check(name)
		if err != nil {
			return "", err
		}

		return name, nil
	}

	denied := false

	for _, dirname := range r.dirnames() {
		pathname := filepath.Join(dirname, name)

		err := r.check(pathname)
		if err == nil {
			return pathname, nil
		}

		if errors.Is(err, ErrNotExecutable) {
			denied = true
		}
	}

	if denied {
		return "", zerr.With(zerr.Wrap(ErrNotExecutable, name), "name", name)
	}

	return "", zerr.With(zerr.Wrap(ErrNotFound, name), "name", name)
}

func (r *Resolver) check(pathname string) error {
	i, err := r.fs.Stat(pathname)
	if errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(ErrNotFound, pathname), "path", pathname)
	} else if err != nil {
		return zerr.With(zerr.Wrap(ErrNotExecutable, pathname), "path", pathname)
	}

	if i.IsDir() || i.Mode()&0o111 == 0 {
		return zerr.With(zerr.Wrap(ErrNotExecutable, pathname), "path", pathname)
	}

	return nil
}

func (r *Resolver) dirnames() []string {
	list := r.path()
	if list == "" {
		return nil
	}

	dirnames := strings.Split(list, string(os.PathListSeparator))
	for i, dirname := range dirnames {
		if dirname == "" {
			dirnames[i] = "."
		} else {
			dirnames[i] = filepath.Clean(dirname)
		}
	}

	return dirnames
}
