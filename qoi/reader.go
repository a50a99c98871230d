package qoi

import (
	"errors"
	"io"
)

var errNotEnough = errors.New("qoi: not enough header data")

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// DecodeHeader reads the header of an encoded image from r without
// touching the chunk stream that follows it.
func DecodeHeader(r io.Reader) (Header, error) {
	var tmp [headerSize]byte
	if err := readFull(r, tmp[:]); err != nil {
		if err != io.ErrUnexpectedEOF {
			return Header{}, err
		}
		return Header{}, errNotEnough
	}

	var h Header
	if err := h.UnmarshalBinary(tmp[:]); err != nil {
		return Header{}, err
	}
	return h, nil
}
