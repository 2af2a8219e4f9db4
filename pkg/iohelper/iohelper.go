// Package iohelper provides helpers for safely reading HTTP response bodies
// with size limits.
package iohelper

import "io"

// Body size limits for different response classes.
const (
	// SmallMaxBodySize is for headers, status pages, etc. (8KB)
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize is for general responses (1MB)
	DefaultMaxBodySize int64 = 1024 * 1024

	// LargeMaxBodySize is for downloads and assets (10MB)
	LargeMaxBodySize int64 = 10 * 1024 * 1024
)

// ReadBody reads from r with a size limit, preventing memory exhaustion
// from maliciously large responses. A nil reader yields an empty slice.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from r with the default 1MB limit.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, DefaultMaxBodySize)
}

// DrainAndClose reads any remaining data from r and closes it if it is a
// ReadCloser, so the underlying connection can be reused for keep-alive.
// Always returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
