// Package sthree implements a storage.Store on AWS S3 and S3-compatible services.
package sthree

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/pokedex/pkg/storage"
	"github.com/oneconcern/pokedex/pkg/storage/status"
)

const PageSize = 1000

type Option func(*s3FS)

func Bucket(bucket string) Option {
	return func(fs *s3FS) {
		fs.bucket = bucket
	}
}

func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// ServerSideEncryption sets the server side encryption algorithm requested on uploads (e.g. AES256)
func ServerSideEncryption(algorithm string) Option {
	return func(fs *s3FS) {
		fs.sse = algorithm
	}
}

// New S3 store. The session is created eagerly: no network call happens before the first operation.
func New(option Option, options ...Option) (storage.Store, error) {
	fs := new(s3FS)
	option(fs)
	for _, apply := range options {
		apply(fs)
	}
	if fs.bucket == "" {
		return nil, status.ErrInvalidResource.Wrapf("s3 bucket is required")
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)
	return fs, nil
}

type s3FS struct {
	bucket    string
	sse       string
	awsConfig *aws.Config
	s3        *s3.S3
	uploader  *s3manager.Uploader
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		if err = filterErrNotExists(toSentinelErrors(err)); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader, noOverWrite bool) error {
	if noOverWrite {
		has, err := s.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.Wrapf("%s", key)
		}
	}

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   rdr,
	}
	if s.sse != "" {
		input.ServerSideEncryption = aws.String(s.sse)
	}
	_, err := s.uploader.UploadWithContext(ctx, input)
	return toSentinelErrors(err)
}

func (s *s3FS) Walk(ctx context.Context, prefix string, fn func(storage.ObjectInfo) error) error {
	var fnErr error
	eachPage := func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == "" {
				continue
			}
			if fnErr = fn(storage.ObjectInfo{Key: key, Size: aws.Int64Value(obj.Size)}); fnErr != nil {
				return false
			}
		}
		return true
	}
	params := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(PageSize),
	}

	if err := s.s3.ListObjectsV2PagesWithContext(ctx, params, eachPage); err != nil {
		return toSentinelErrors(err)
	}
	return fnErr
}

func (s *s3FS) String() string {
	return "s3://" + s.bucket
}
