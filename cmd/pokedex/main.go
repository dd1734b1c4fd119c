// Copyright © 2018 One Concern

package main

import "github.com/oneconcern/pokedex/cmd/pokedex/cmd"

func main() {
	cmd.Execute()
}
