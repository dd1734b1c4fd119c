// Package pokeball encodes and decodes pokeball stub files.
//
// A pokeball is the small text file left in place of an archived file.
// It records the tagged content hash under which the original bytes are
// stored in the blob store:
//
//	POKEBALL
//	sha256_<64 hex chars>
//
// Extra metadata lines may appear between the magic line and the hash:
// the hash is always the last non-blank line.
//
// The pokeball file name is the original file name with the "__pokeball" suffix.
package pokeball
