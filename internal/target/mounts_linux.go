//go:build linux

package target

import "os"

// ProcMounts is a MountCheck backed by /proc/self/mounts. It reports false
// when the mount table cannot be read.
func ProcMounts(path string) bool {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return false
	}
	defer f.Close()
	return mountedIn(f, path)
}
