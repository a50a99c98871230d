package qoiconv

import (
	"crypto/sha1"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/qoiconv/qoi"
)

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

func destination(src string, c Compression) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + c.Extension()
}

func hashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

// Encode decodes the image read from r and writes it to w in QOI format.
// The returned Record has no source or destination set.
func (c *Converter) Encode(w io.Writer, r io.Reader) (*Record, error) {
	h := sha1.New()
	tr := io.TeeReader(r, h)

	m, _, err := image.Decode(tr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// Hash any trailing bytes the decoder didn't need
	if _, err := io.Copy(ioutil.Discard, tr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if c.options.Colors > 0 {
		m = reduceColors(m, c.options.Colors)
	}

	header, pix, err := qoi.Pixels(m)
	if err != nil {
		return nil, err
	}

	cw := &countWriter{w: w}
	zw, err := c.options.Compression.newWriter(cw)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(c.encoder.Append(nil, header, pix)); err != nil {
		zw.Close()
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return &Record{
		SHA1:     fmt.Sprintf("%X", h.Sum(nil)),
		Width:    header.Width,
		Height:   header.Height,
		Channels: header.Channels,
		Size:     cw.n,
	}, nil
}

// Convert encodes the image in the file src to the file dst. An empty dst
// replaces the extension of src with one matching the compression.
func (c *Converter) Convert(src, dst string) (*Record, error) {
	if dst == "" {
		dst = destination(src, c.options.Compression)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrDecode, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrWrite, dst, err)
	}

	r, err := c.Encode(out, in)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %q: %v", ErrWrite, dst, cerr)
	}
	if err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("%q: %w", src, err)
	}

	r.Source, r.Destination = src, dst

	if c.db != nil {
		if err := c.db.Add(r); err != nil {
			return nil, err
		}
	}

	c.logger.Printf("Converted \"%s\" to \"%s\", %d bytes\n", src, dst, r.Size)

	return r, nil
}
