package pokeball

import (
	"os"
	"strings"
)

// Suffix appended to a file name to get the name of its pokeball
const Suffix = "__pokeball"

// IsStubName tells if name is the name of a pokeball
func IsStubName(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// ToStubName yields the pokeball name for a file name
func ToStubName(name string) (string, error) {
	if IsStubName(name) {
		return "", ErrInvalidArgument.Wrapf("%q is already a pokeball name", name)
	}
	return name + Suffix, nil
}

// FromStubName yields the original file name for a pokeball name
func FromStubName(name string) (string, error) {
	if !IsStubName(name) {
		return "", ErrInvalidArgument.Wrapf("%q is not a pokeball name", name)
	}
	original := strings.TrimSuffix(name, Suffix)
	if original == "" || strings.HasSuffix(original, "/") || strings.HasSuffix(original, string(os.PathSeparator)) {
		return "", ErrInvalidArgument.Wrapf("%q has no original file name", name)
	}
	return original, nil
}
