//go:build !windows

package media

import "golang.org/x/sys/unix"

// diskUsage reports capacity and free space of the filesystem holding
// path.
func diskUsage(path string) (total, free uint64, err error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0, err
	}
	bsize := uint64(fs.Bsize)
	return fs.Blocks * bsize, fs.Bavail * bsize, nil
}
