package pokeball

import "github.com/oneconcern/pokedex/pkg/errors"

var (
	// ErrMalformedStub indicates that the content of a pokeball does not parse
	ErrMalformedStub = errors.New("malformed pokeball")

	// ErrMalformedHash indicates that a hash string is not of the form <algorithm>_<hex digest>
	ErrMalformedHash = errors.New("malformed hash")

	// ErrInvalidArgument indicates that a file name violates the pokeball naming convention
	ErrInvalidArgument = errors.New("invalid argument")
)
