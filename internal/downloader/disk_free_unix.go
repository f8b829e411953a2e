//go:build !windows

package downloader

import (
	"os"
	"syscall"
)

// FreeSpace returns the number of bytes available to the current user on
// the filesystem holding path, or 0 when it cannot be determined.
func FreeSpace(path string) int64 {
	stat, err := os.Stat(path)
	if err != nil || !stat.IsDir() {
		return 0
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		return 0
	}

	return int64(fs.Bavail) * int64(fs.Bsize)
}
