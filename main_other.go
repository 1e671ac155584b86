// Released under an MIT license. See LICENSE.

//go:build !(darwin || dragonfly || freebsd || linux || netbsd || openbsd)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "jobsh: job control is not supported on this platform")
	os.Exit(1)
}
