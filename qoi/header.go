package qoi

import (
	"encoding/binary"
	"fmt"
)

// Header describes an encoded image. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	Colorspace uint8
}

// NewHeader returns the header for an image of the given dimensions and
// channel count. The colorspace is always Linear.
func NewHeader(width, height uint32, channels uint8) Header {
	return Header{
		Width:      width,
		Height:     height,
		Channels:   channels,
		Colorspace: Linear,
	}
}

// AppendHeader appends the 14 byte encoding of h to b.
func AppendHeader(b []byte, h Header) []byte {
	b = append(b, Magic...)
	b = binary.BigEndian.AppendUint32(b, h.Width)
	b = binary.BigEndian.AppendUint32(b, h.Height)
	return append(b, h.Channels, h.Colorspace)
}

// MarshalBinary encodes the header into binary form and returns the result
func (h Header) MarshalBinary() ([]byte, error) {
	return AppendHeader(make([]byte, 0, headerSize), h), nil
}

// UnmarshalBinary decodes the header from binary form
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) != headerSize {
		return fmt.Errorf("qoi: header is %d bytes, expected %d", len(b), headerSize)
	}
	if string(b[:4]) != Magic {
		return ErrInvalidMagic
	}
	if b[12] != RGB && b[12] != RGBA {
		return ErrInvalidChannels
	}

	*h = Header{
		Width:      binary.BigEndian.Uint32(b[4:8]),
		Height:     binary.BigEndian.Uint32(b[8:12]),
		Channels:   b[12],
		Colorspace: b[13],
	}
	return nil
}

// Pixels returns the number of pixels described by the header.
func (h Header) Pixels() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}
