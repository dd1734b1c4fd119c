package cmd

import (
	"os"

	"github.com/oneconcern/pokedex/pkg/errors"
)

var (
	// used to patch over calls to os.Exit() during test
	osExit = os.Exit

	errFailures = errors.New("some paths failed")
)
