// Copyright © 2018 One Concern

package cmd

import (
	"github.com/oneconcern/pokedex/pkg/blobstore"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	keyBlobStore     = "blobstore"
	keyJournal       = "journal"
	keyHash          = "hash"
	keyConcurrency   = "concurrency"
	keyVerify        = "verify"
	keyLogLevel      = "loglevel"
	keyS3Region      = "s3.region"
	keyS3Endpoint    = "s3.endpoint"
	keyS3AccessKey   = "s3.access_key"
	keyS3SecretKey   = "s3.secret_key"
	keyS3Encryption  = "s3.encryption"
	keyGCSCredential = "gcs.credential"

	redacted = "REDACTED"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	BlobStore   string              `mapstructure:"blobstore" yaml:"blobstore"`
	Journal     string              `mapstructure:"journal" yaml:"journal"`
	Hash        string              `mapstructure:"hash" yaml:"hash"`
	Concurrency int                 `mapstructure:"concurrency" yaml:"concurrency"`
	Verify      bool                `mapstructure:"verify" yaml:"verify"`
	LogLevel    string              `mapstructure:"loglevel" yaml:"loglevel"`
	S3          blobstore.S3Config  `mapstructure:"s3" yaml:"s3,omitempty"`
	GCS         blobstore.GCSConfig `mapstructure:"gcs" yaml:"gcs,omitempty"`
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// redact secrets before printing
func (c CLIConfig) redact() CLIConfig {
	if c.S3.SecretKey != "" {
		c.S3.SecretKey = redacted
	}
	if c.S3.AccessKey != "" {
		c.S3.AccessKey = redacted
	}
	return c
}

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration, as YAML.

Configuration is read from pokedex.yaml, in the current directory, $HOME/.pokedex or /etc/pokedex,
or from the file named by the POKEDEX_CONFIG environment variable.
Any key may be overridden by an environment variable: POKEDEX_BLOBSTORE, POKEDEX_S3_REGION, ...
Command line flags take precedence over both.

Secrets are redacted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(config.redact())
		if err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			infof(cmd.OutOrStdout(), "# %s\n", used)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
