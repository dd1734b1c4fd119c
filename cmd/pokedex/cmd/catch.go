// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/pokedex/pkg/archiver"
	"github.com/spf13/cobra"
)

var catchCmd = &cobra.Command{
	Use:   "catch [flags] path...",
	Short: "Archive files to the blob store, replacing them by pokeballs",
	Long: `Archive files to the blob store, replacing them by pokeballs.

Each file is uploaded unless the blob store already holds the same content, then replaced by
a pokeball named after the file with the "__pokeball" suffix.

Directories are skipped unless --recurse is given. Links, devices, pipes and sockets are always skipped.
`,
	Example: `  pokedex catch notes.txt
  pokedex catch -r photos/
  pokedex catch --no-delete --blobstore s3://my-bucket/archive big.tar`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maker, err := makeFingerprint()
		if err != nil {
			return err
		}
		return runArchiver(cmd, archiver.OpCatch, args, (*archiver.Archiver).CatchAll, archiver.Fingerprint(maker))
	},
}

func init() {
	addRecurseFlag(catchCmd)
	addNoDeleteFlag(catchCmd)
	addHashFlag(catchCmd)
	rootCmd.AddCommand(catchCmd)
}
