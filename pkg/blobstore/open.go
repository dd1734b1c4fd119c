package blobstore

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/oneconcern/pokedex/pkg/storage"
	"github.com/oneconcern/pokedex/pkg/storage/gcs"
	"github.com/oneconcern/pokedex/pkg/storage/localfs"
	"github.com/oneconcern/pokedex/pkg/storage/status"
	"github.com/oneconcern/pokedex/pkg/storage/sthree"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultRegion is the AWS region used when none is configured
const DefaultRegion = "us-west-2"

// S3Config holds the settings of an S3 backend
type S3Config struct {
	Region     string `mapstructure:"region" json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint   string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKey  string `mapstructure:"access_key" json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey  string `mapstructure:"secret_key" json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	Encryption string `mapstructure:"encryption" json:"encryption,omitempty" yaml:"encryption,omitempty"`
}

// GCSConfig holds the settings of a GCS backend
type GCSConfig struct {
	Credential string `mapstructure:"credential" json:"credential,omitempty" yaml:"credential,omitempty"`
}

// Config for backends resolved by Open
type Config struct {
	S3  S3Config
	GCS GCSConfig

	// Fs is the local file system for files exchanged with the store
	Fs afero.Fs

	Logger   *zap.Logger
	Progress ProgressFunc
}

// Open a blob store from a URL.
//
// The URL path is used as the key prefix for remote stores, defaulting to "blobs/".
// A URL without scheme is a local directory.
func Open(ctx context.Context, rawURL string, cfg Config) (*Remote, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	store, prefix, err := openStore(ctx, rawURL, cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Debug("opened blob store", zap.String("store", store.String()), zap.String("prefix", prefix))

	return New(
		storage.Instrument(store, cfg.Logger, nil),
		Prefix(prefix),
		Fs(cfg.Fs),
		Logger(cfg.Logger),
		Progress(cfg.Progress),
	), nil
}

func openStore(ctx context.Context, rawURL string, cfg Config) (storage.Store, string, error) {
	if rawURL == "" {
		return nil, "", fmt.Errorf("a blob store URL is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid blob store URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "", "file":
		dir := u.Path
		if u.Scheme == "" {
			dir = rawURL
		}
		if dir == "" {
			return nil, "", fmt.Errorf("a directory is required in blob store URL %q", rawURL)
		}
		dir, err = filepath.Abs(filepath.FromSlash(dir))
		if err != nil {
			return nil, "", err
		}
		if err = afero.NewOsFs().MkdirAll(dir, 0o700); err != nil {
			return nil, "", err
		}
		return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), dir)), DefaultPrefix, nil

	case "mem":
		return localfs.New(afero.NewMemMapFs()), DefaultPrefix, nil

	case "s3":
		awsConfig := aws.NewConfig().WithRegion(DefaultRegion)
		if cfg.S3.Region != "" {
			awsConfig = awsConfig.WithRegion(cfg.S3.Region)
		}
		if cfg.S3.Endpoint != "" {
			awsConfig = awsConfig.WithEndpoint(cfg.S3.Endpoint).WithS3ForcePathStyle(true)
		}
		if cfg.S3.AccessKey != "" {
			awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey, ""))
		}
		opts := []sthree.Option{sthree.AWSConfig(awsConfig)}
		if cfg.S3.Encryption != "" {
			opts = append(opts, sthree.ServerSideEncryption(cfg.S3.Encryption))
		}
		store, err := sthree.New(sthree.Bucket(u.Host), opts...)
		return store, urlPrefix(u), err

	case "gs", "gcs":
		store, err := gcs.New(ctx, u.Host, cfg.GCS.Credential, gcs.Logger(cfg.Logger))
		return store, urlPrefix(u), err

	default:
		return nil, "", status.ErrNotSupported.Wrapf("blob store scheme %q in %q", u.Scheme, rawURL)
	}
}

func urlPrefix(u *url.URL) string {
	prefix := strings.Trim(u.Path, "/")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix + "/"
}
