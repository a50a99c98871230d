/*
Package qoi implements a QOI ("Quite OK Image") encoder.

An encoded image is a 14 byte header followed by a stream of chunks and
finally an 8 byte end marker. The header holds the magic "qoif", the width
and height as big-endian 32-bit values, the number of channels (3 or 4) and
a colorspace flag.

Each pixel is encoded as exactly one chunk, identified by the leading bits
of its first byte:

	0b00xxxxxx  index into a 64 entry cache of previously seen pixels
	0b01rrggbb  small difference from the previous pixel
	0b10gggggg  luma difference, a second byte holds the red and blue parts
	0xfe        RGB literal, followed by three bytes
	0xff        RGBA literal, followed by four bytes

The encoder can optionally collapse runs of identical pixels into 0b11xxxxxx
run chunks, see Encoder.
*/
package qoi

import "errors"

const (
	headerSize = 14
	cacheSize  = 64
	maxRun     = 62

	opIndex = 0x00
	opDiff  = 0x40
	opLuma  = 0x80
	opRun   = 0xc0
	opRGB   = 0xfe
	opRGBA  = 0xff
)

// Magic is the identifier at the start of every encoded image.
const Magic = "qoif"

// Channel counts stored in the header.
const (
	RGB  = 3
	RGBA = 4
)

// Colorspace flags stored in the header.
const (
	SRGB   = 0
	Linear = 1
)

// EndMarker terminates the chunk stream.
var EndMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

var (
	// ErrUnsupportedColor indicates a color model with more than 8 bits
	// per channel.
	ErrUnsupportedColor = errors.New("qoi: unsupported color model")
	// ErrInvalidSize indicates an empty image or dimensions that do not
	// fit in the header.
	ErrInvalidSize = errors.New("qoi: invalid image size")
	// ErrInvalidMagic indicates a header not starting with Magic.
	ErrInvalidMagic = errors.New("qoi: invalid magic")
	// ErrInvalidChannels indicates a channel count other than 3 or 4.
	ErrInvalidChannels = errors.New("qoi: invalid channel count")
)
