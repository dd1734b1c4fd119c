// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/pokedex/pkg/dlogger"
	"github.com/oneconcern/pokedex/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pokedex",
	Short: "Pokedex archives files to a blob store, leaving pokeballs behind",
	Long: `Pokedex archives files to a blob store, leaving pokeballs behind.

"pokedex catch" uploads the content of files to the blob store, keyed by the hash of their content,
and replaces each file by a small pokeball: a text file named after the original file with the
"__pokeball" suffix, which records the hash.

"pokedex release" downloads the content back and restores the original files in place of their pokeballs.

Identical files are stored once. Interrupting pokedex at any time leaves either the original file or its
pokeball on disk: running the same command again completes the job.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		level := config.LogLevel
		if pokedexFlags.root.verbose {
			level = "debug"
		}
		l, err := dlogger.GetConsoleLogger(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	config    *CLIConfig
	configErr error
	logger    = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := signalContext()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorf(rootCmd.ErrOrStderr(), "%v", err)
		cancel()
		osExit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	addVerboseFlag(rootCmd)
	addLogLevelFlag(rootCmd)
	addBlobStoreFlag(rootCmd)
	addConcurrencyFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.Reset()
	home, _ := os.UserHomeDir()
	viper.SetDefault(keyBlobStore, defaultBlobStore(home))
	viper.SetDefault(keyJournal, defaultJournal(home))
	viper.SetDefault(keyHash, "sha256")
	viper.SetDefault(keyConcurrency, 1)
	viper.SetDefault(keyVerify, true)
	viper.SetDefault(keyLogLevel, "warn")
	for _, key := range []string{keyS3Region, keyS3Endpoint, keyS3AccessKey, keyS3SecretKey, keyS3Encryption, keyGCSCredential} {
		viper.SetDefault(key, "")
	}
	bindFlags()

	if os.Getenv("POKEDEX_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("POKEDEX_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.pokedex")
		viper.AddConfigPath("/etc/pokedex")
		viper.SetConfigName("pokedex")
	}

	viper.SetEnvPrefix("pokedex")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config file: %w", err)
			return
		}
	}

	var err error
	config, err = newConfig()
	if err != nil {
		configErr = fmt.Errorf("invalid configuration: %w", err)
	}
}

func defaultBlobStore(home string) string {
	if home == "" {
		return ""
	}
	return "file://" + filepath.ToSlash(filepath.Join(home, ".pokedex", "blobs"))
}

func defaultJournal(home string) string {
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".pokedex", "pokedex.log")
}
