package rdfio

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	gzipMagic  = "\x1f\x8b"
	bzip2Magic = "BZh"
	zstdMagic  = "\x28\xb5\x2f\xfd"
)

// Compression names a detected input encoding
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gzip"
	CompressionBzip2 Compression = "bzip2"
	CompressionZstd  Compression = "zstd"
)

// Decompress sniffs the first bytes of r and wraps it in the matching
// decompressor. Uncompressed input is passed through. Closing the result
// releases the decompressor but not r.
func Decompress(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	buf, err := br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", err
	}

	switch {
	case bytes.HasPrefix(buf, []byte(gzipMagic)):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, "", err
		}
		return zr, CompressionGzip, nil

	case bytes.HasPrefix(buf, []byte(zstdMagic)):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, "", err
		}
		return zr.IOReadCloser(), CompressionZstd, nil

	case bytes.HasPrefix(buf, []byte(bzip2Magic)):
		return io.NopCloser(bzip2.NewReader(br)), CompressionBzip2, nil

	default:
		return io.NopCloser(br), CompressionNone, nil
	}
}
