/*
Package qoiconv is a library for converting images to the QOI format.

Sources in any format registered with the image package are decoded,
optionally reduced to a smaller palette, encoded with package qoi and
written out, optionally wrapped in a zstd or LZ4 stream. Each conversion
can be recorded in a SQLite history database so that unchanged sources are
skipped when a directory is scanned again.
*/
package qoiconv

import (
	"log"

	"github.com/bodgit/qoiconv/qoi"
)

// Options controls how images are converted.
type Options struct {
	// Runs enables run chunks for repeated pixels.
	Runs bool
	// Colors reduces the image to a palette of at most this many colors
	// before encoding, zero disables it.
	Colors int
	// Compression wraps the encoded output.
	Compression Compression
	// Workers is the number of concurrent conversions used by Scan.
	Workers int
	// Force converts sources even if the history says they are unchanged.
	Force bool
}

const defaultWorkers = 10

// Converter converts images, recording the results in an optional history
// database.
type Converter struct {
	db      *HistoryDB
	logger  *log.Logger
	options Options
	encoder qoi.Encoder
}

// New returns a Converter using the history database at file, an empty
// file disables the history. A nil opts uses the defaults.
func New(file string, logger *log.Logger, opts *Options) (*Converter, error) {
	c := &Converter{
		logger: logger,
	}
	if opts != nil {
		c.options = *opts
	}
	if c.options.Workers < 1 {
		c.options.Workers = defaultWorkers
	}
	if c.options.Colors < 0 || c.options.Colors > maxColors {
		return nil, ErrInvalidColors
	}
	c.encoder.Runs = c.options.Runs

	if file != "" {
		db, err := NewHistoryDB(file)
		if err != nil {
			return nil, err
		}
		c.db = db
	}

	return c, nil
}

// Close closes the history database, if any.
func (c *Converter) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// History returns every recorded conversion, ordered by source path.
func (c *Converter) History() ([]Record, error) {
	if c.db == nil {
		return nil, nil
	}
	return c.db.Records()
}
