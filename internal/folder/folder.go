// Package folder opens directories in the host file manager.
package folder

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// command builds the opener for goos; nil means no known mechanism.
func command(goos, path string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		return exec.Command("open", path)
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return exec.Command("xdg-open", path)
	default:
		return nil
	}
}

var (
	goos  = runtime.GOOS
	start = func(cmd *exec.Cmd) error { return cmd.Start() }
)

// Open asks the file manager to show path. It returns "" on success and an
// explanation otherwise; failure to open a folder is never an error.
func Open(path string) string {
	cmd := command(goos, path)
	if cmd == nil {
		return fmt.Sprintf("no folder opener available on %s", goos)
	}
	if err := start(cmd); err != nil {
		return fmt.Sprintf("cannot open %s: %v", path, err)
	}
	return ""
}

// OpenCurrent opens the working directory.
func OpenCurrent() string {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Sprintf("cannot determine current folder: %v", err)
	}
	return Open(wd)
}
