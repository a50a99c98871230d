package qoiconv

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects an optional stream wrapped around the encoded image.
type Compression int

// Supported compression methods.
const (
	None Compression = iota
	Zstd
	LZ4
)

var compressionNames = map[Compression]string{
	None: "none",
	Zstd: "zstd",
	LZ4:  "lz4",
}

func (c Compression) String() string {
	if s, ok := compressionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// ParseCompression returns the Compression named s, an empty s is None.
func ParseCompression(s string) (Compression, error) {
	if s == "" {
		return None, nil
	}
	for c, name := range compressionNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
}

// Extension returns the filename extension for an encoded image using
// this compression.
func (c Compression) Extension() string {
	switch c {
	case Zstd:
		return ".qoi.zst"
	case LZ4:
		return ".qoi.lz4"
	}
	return ".qoi"
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// newWriter wraps w, closing the result flushes any compressed data but
// leaves w open
func (c Compression) newWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopCloser{w}, nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithEncoderConcurrency(1))
	case LZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.CompressionLevelOption(lz4.Level5)); err != nil {
			return nil, err
		}
		return zw, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownCompression, c)
}
