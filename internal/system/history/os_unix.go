// Released under an MIT license. See LICENSE.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package history

import (
	"os"
	"path/filepath"
)

func defaultPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}

	return filepath.Join(home, ".jobsh_history")
}
