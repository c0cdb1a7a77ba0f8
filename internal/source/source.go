// Package source reads import input into memory under a hard size cap,
// transparently decompressing gzip and zstd streams, and sniffs its format.
package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/lherron/caseq/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format is the detected encoding of the input document
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Compression names the container format the input arrived in
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	utf8BOM   = []byte{0xef, 0xbb, 0xbf}
)

// Input is a fully materialized import document
type Input struct {
	Data        []byte
	Compression Compression
	// RawSize is the number of bytes read before decompression
	RawSize int64
}

// Read materializes r. Both the raw stream and the decompressed document
// must fit within limit bytes, otherwise a *domain.SizeLimitError is returned.
func Read(r io.Reader, limit int64) (*Input, error) {
	raw, err := readCapped(r, limit)
	if err != nil {
		return nil, err
	}

	in := &Input{Data: raw, Compression: CompressionNone, RawSize: int64(len(raw))}
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, &domain.ParseError{Format: "gzip", Err: err}
		}
		defer zr.Close()
		if in.Data, err = readCapped(zr, limit); err != nil {
			return nil, wrapDecompressError("gzip", err)
		}
		in.Compression = CompressionGzip

	case bytes.HasPrefix(raw, zstdMagic):
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, &domain.ParseError{Format: "zstd", Err: err}
		}
		defer dec.Close()
		if in.Data, err = readCapped(dec, limit); err != nil {
			return nil, wrapDecompressError("zstd", err)
		}
		in.Compression = CompressionZstd
	}

	in.Data = bytes.TrimPrefix(in.Data, utf8BOM)
	return in, nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &domain.SizeLimitError{Limit: limit}
	}
	return data, nil
}

func wrapDecompressError(format string, err error) error {
	if domain.IsSizeLimitError(err) {
		return err
	}
	return &domain.ParseError{Format: format, Err: err}
}

// DetectFormat sniffs the document type from its first significant byte.
// Markup starts with '<'; JSON must also be well-formed; YAML must decode
// to a mapping or sequence.
func DetectFormat(data []byte) (Format, error) {
	trimmed := strings.TrimSpace(string(bytes.TrimPrefix(data, utf8BOM)))
	if trimmed == "" {
		return "", &domain.ParseError{Format: "input", Err: fmt.Errorf("document is empty")}
	}

	switch trimmed[0] {
	case '<':
		return FormatXML, nil
	case '{', '[':
		var js json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &js); err != nil {
			return "", &domain.ParseError{Format: string(FormatJSON), Err: err}
		}
		return FormatJSON, nil
	}

	var probe interface{}
	if err := yaml.Unmarshal([]byte(trimmed), &probe); err != nil {
		return "", &domain.ParseError{Format: string(FormatYAML), Err: err}
	}
	switch probe.(type) {
	case map[string]interface{}, []interface{}:
		return FormatYAML, nil
	}
	return "", &domain.ParseError{Format: "input", Err: fmt.Errorf("unrecognized document format")}
}
