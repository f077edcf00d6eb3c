//go:build linux || darwin || freebsd || netbsd || openbsd

package rule

import (
	"time"

	"golang.org/x/sys/unix"
)

// AccessTime returns the last access time recorded by the filesystem.
func AccessTime(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	sec, nsec := st.Atim.Unix()
	return time.Unix(sec, nsec), nil
}
