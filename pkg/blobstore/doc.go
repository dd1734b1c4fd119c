// Package blobstore stores file contents as immutable blobs, addressed by their content hash.
//
// A BlobStore exchanges whole local files with a remote storage backend:
// Put uploads a file under its hash, Get downloads a blob into a local file.
// Open resolves a backend from a URL:
//
//	file:///var/lib/pokedex    local directory
//	mem://                     in-memory (tests, dry runs)
//	s3://bucket/prefix         AWS S3 or compatible
//	gs://bucket/prefix         Google Cloud Storage
package blobstore
