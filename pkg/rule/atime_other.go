//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package rule

import (
	"os"
	"time"
)

// AccessTime falls back to the modification time where the platform does
// not expose an access time through unix.Stat.
func AccessTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
