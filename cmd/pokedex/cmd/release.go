// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/pokedex/pkg/archiver"
	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release [flags] pokeball...",
	Short: "Restore files from their pokeballs",
	Long: `Restore files from their pokeballs.

The content is downloaded next to the pokeball, checked against the hash it records,
then moved in place of the original file, and the pokeball is removed.
An existing file with the original name is replaced.

With --recurse, all pokeballs under a directory are released and other files are left alone.
`,
	Example: `  pokedex release notes.txt__pokeball
  pokedex release -r photos/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verify := config.Verify && !pokedexFlags.release.noVerify
		return runArchiver(cmd, archiver.OpRelease, args, (*archiver.Archiver).ReleaseAll, archiver.VerifyRelease(verify))
	},
}

func init() {
	addRecurseFlag(releaseCmd)
	addNoDeleteFlag(releaseCmd)
	addNoVerifyFlag(releaseCmd)
	rootCmd.AddCommand(releaseCmd)
}
