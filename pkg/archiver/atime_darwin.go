// Copyright © 2018 One Concern

package archiver

import (
	"time"

	"golang.org/x/sys/unix"
)

func lstatAtime(path string) (time.Time, bool) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return time.Time{}, false
	}
	return time.Unix(st.Atimespec.Unix()), true
}
