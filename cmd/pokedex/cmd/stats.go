// Copyright © 2018 One Concern

package cmd

import (
	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number and total size of blobs in the blob store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		blobs, err := openBlobStore(cmd.Context())
		if err != nil {
			return err
		}
		usage, err := blobs.Usage(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		infof(out, "blob store: %s\n", blobs)
		infof(out, "blobs: %d\n", usage.Blobs)
		infof(out, "size: %s (%d bytes)\n", units.HumanSize(float64(usage.Bytes)), usage.Bytes)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
