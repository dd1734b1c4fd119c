// Copyright © 2018 One Concern

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type flagsT struct {
	root struct {
		verbose     bool
		logLevel    string
		blobStore   string
		concurrency int
	}
	archive struct {
		recurse  bool
		noDelete bool
	}
	catch struct {
		hash string
	}
	release struct {
		noVerify bool
	}
}

var pokedexFlags = flagsT{}

// flags bound to configuration keys: when set, they take precedence over the config file and environment
var boundFlags = map[string]func() *pflag.Flag{}

func bindFlag(key string, lookup func() *pflag.Flag) {
	boundFlags[key] = lookup
}

func bindFlags() {
	for key, lookup := range boundFlags {
		_ = viper.BindPFlag(key, lookup())
	}
}

func addVerboseFlag(cmd *cobra.Command) string {
	verbose := "verbose"
	cmd.PersistentFlags().BoolVarP(&pokedexFlags.root.verbose, verbose, "v", false, "Log debug messages and transfer progress")
	return verbose
}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "loglevel"
	cmd.PersistentFlags().StringVar(&pokedexFlags.root.logLevel, logLevel, "warn", "The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	bindFlag(keyLogLevel, func() *pflag.Flag { return cmd.PersistentFlags().Lookup(logLevel) })
	return logLevel
}

func addBlobStoreFlag(cmd *cobra.Command) string {
	blobStore := "blobstore"
	cmd.PersistentFlags().StringVar(&pokedexFlags.root.blobStore, blobStore, "",
		"The blob store URL: a local directory, file:///path, s3://bucket/prefix, gs://bucket/prefix or mem://")
	bindFlag(keyBlobStore, func() *pflag.Flag { return cmd.PersistentFlags().Lookup(blobStore) })
	return blobStore
}

func addConcurrencyFlag(cmd *cobra.Command) string {
	concurrency := "concurrency"
	cmd.PersistentFlags().IntVar(&pokedexFlags.root.concurrency, concurrency, 1, "The number of files of a directory processed at once")
	bindFlag(keyConcurrency, func() *pflag.Flag { return cmd.PersistentFlags().Lookup(concurrency) })
	return concurrency
}

func addRecurseFlag(cmd *cobra.Command) string {
	recurse := "recurse"
	cmd.Flags().BoolVarP(&pokedexFlags.archive.recurse, recurse, "r", false, "Recurse into directories")
	return recurse
}

func addNoDeleteFlag(cmd *cobra.Command) string {
	noDelete := "no-delete"
	cmd.Flags().BoolVarP(&pokedexFlags.archive.noDelete, noDelete, "n", false, "Keep the original file after a catch, or the pokeball after a release")
	return noDelete
}

func addHashFlag(cmd *cobra.Command) string {
	hash := "hash"
	cmd.Flags().StringVar(&pokedexFlags.catch.hash, hash, "sha256", "The hashing algorithm for new pokeballs: sha256 or blake2b")
	bindFlag(keyHash, func() *pflag.Flag { return cmd.Flags().Lookup(hash) })
	return hash
}

func addNoVerifyFlag(cmd *cobra.Command) string {
	noVerify := "no-verify"
	cmd.Flags().BoolVar(&pokedexFlags.release.noVerify, noVerify, false, "Do not check downloaded content against the hash of the pokeball")
	return noVerify
}
