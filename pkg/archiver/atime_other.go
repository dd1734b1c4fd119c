// Copyright © 2018 One Concern

//go:build !linux && !darwin

package archiver

import "time"

// access times are not exposed: callers fall back to the modification time
func lstatAtime(string) (time.Time, bool) {
	return time.Time{}, false
}
