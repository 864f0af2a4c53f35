package rdfio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aleksaelezovic/quadline/clog"
)

// ErrTooLarge is returned by ReadAll when the input exceeds its size limit
var ErrTooLarge = errors.New("input exceeds size limit")

// Stdin is the name that selects standard input
const Stdin = "-"

var stdin io.Reader = os.Stdin

// Source describes an opened input
type Source struct {
	Name        string
	Format      Format
	Compression Compression
}

// Open opens name for reading: "-" is standard input, http and https URLs
// are fetched, anything else is a local file. The returned reader is
// already decompressed.
func Open(ctx context.Context, name string) (io.ReadCloser, *Source, error) {
	src := &Source{Name: name}

	var raw io.ReadCloser
	switch {
	case name == Stdin:
		raw = io.NopCloser(stdin)
	case isURL(name):
		body, format, err := fetch(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		raw, src.Format = body, format
	default:
		f, err := os.Open(name) // #nosec G304 - reading user-named input is the point
		if err != nil {
			return nil, nil, err
		}
		raw, src.Format = f, FormatForPath(name)
	}

	dr, compression, err := Decompress(raw)
	if err != nil {
		_ = raw.Close()
		return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	src.Compression = compression
	if clog.V(1) {
		clog.Infof("rdfio: opened %s (format %s, compression %s)", name, src.Format, compression)
	}

	return &readCloser{Reader: dr, closers: []io.Closer{dr, raw}}, src, nil
}

// ReadAll opens name and reads the whole decompressed document. A positive
// limit caps the decompressed size.
func ReadAll(ctx context.Context, name string, limit int64) (string, *Source, error) {
	r, src, err := Open(ctx, name)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	var reader io.Reader = r
	if limit > 0 {
		reader = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("error reading input: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", nil, fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, limit)
	}
	return string(data), src, nil
}

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

func fetch(ctx context.Context, rawURL string) (io.ReadCloser, Format, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, FormatUnknown, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, FormatUnknown, err
	}
	req.Header.Set("Accept", strings.Join(SupportedContentTypes(), ", "))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, FormatUnknown, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, FormatUnknown, fmt.Errorf("GET %s: %s", rawURL, resp.Status)
	}

	format := FormatForPath(u.Path)
	if ct := resp.Header.Get("Content-Type"); ct != "" && !isBinaryContentType(ct) {
		format, err = FormatForContentType(ct)
		if err != nil {
			_ = resp.Body.Close()
			return nil, FormatUnknown, err
		}
	}
	return resp.Body, format, nil
}

// isBinaryContentType reports types that say nothing about the RDF format,
// as served for compressed dumps
func isBinaryContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "application/octet-stream", "application/gzip", "application/x-gzip",
		"application/zstd", "application/x-bzip2":
		return true
	}
	return false
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
