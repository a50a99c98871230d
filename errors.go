package qoiconv

import (
	"errors"

	"github.com/bodgit/qoiconv/qoi"
)

var (
	// ErrUnsupportedColor indicates a source whose color model can't be
	// encoded, such as 16 bits per channel.
	ErrUnsupportedColor = qoi.ErrUnsupportedColor
	// ErrDecode indicates the source could not be read or decoded.
	ErrDecode = errors.New("decode image failed")
	// ErrWrite indicates the destination could not be created or written.
	ErrWrite = errors.New("write image failed")
	// ErrInvalidColors indicates a palette size outside 0 to 256.
	ErrInvalidColors = errors.New("invalid number of colors")
	// ErrUnknownCompression indicates an unrecognised compression name.
	ErrUnknownCompression = errors.New("unknown compression")
)
