// Copyright © 2018 One Concern

package archiver

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// tempSuffix marks partially written pokeballs and downloads
	tempSuffix = "__TEMP"

	// maxTempPrefix bounds the part of the original name kept in a temporary name
	maxTempPrefix = 32
)

// tempPattern builds an afero.TempFile pattern for a temporary file standing for name.
//
// The name is truncated so the temporary name remains short enough for any file system
// that accepts name itself.
func tempPattern(name, infix string) string {
	prefix := filepath.Base(name)
	if len(prefix) > maxTempPrefix {
		prefix = prefix[:maxTempPrefix]
		for !utf8.ValidString(prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return "." + prefix + infix + "-*" + tempSuffix
}

// isTempName tells if path is a temporary file left behind by an interrupted catch or release
func isTempName(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && strings.HasSuffix(base, tempSuffix)
}
