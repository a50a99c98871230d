package qoi

import (
	"image"
	"image/color"
	"io"
)

// Pixel is a single non-premultiplied color with 8 bits per channel.
type Pixel struct {
	R, G, B, A uint8
}

// Hash returns the cache slot for p, always in the range [0, 63].
func Hash(p Pixel) uint8 {
	return uint8((uint(p.R)*3 + uint(p.G)*5 + uint(p.B)*7 + uint(p.A)*11) % cacheSize)
}

// encoder holds the state for a single pass over a pixel stream. The zero
// cache slots hold the {0, 0, 0, 0} sentinel.
type encoder struct {
	runs  bool
	cache [cacheSize]Pixel
	prev  Pixel
	run   int
}

func newEncoder(runs bool) *encoder {
	return &encoder{
		runs: runs,
		prev: Pixel{A: 0xff},
	}
}

// Append the chunk for p and advance the state
func (e *encoder) encode(b []byte, p Pixel) []byte {
	if e.runs {
		if p == e.prev {
			e.run++
			if e.run == maxRun {
				b = e.flush(b)
			}
			return b
		}
		b = e.flush(b)
	}

	// A hit leaves the slot as is, anything else replaces the occupant
	if h := Hash(p); e.cache[h] == p {
		b = append(b, opIndex|h)
	} else {
		b = appendChange(b, e.prev, p)
		e.cache[h] = p
	}

	e.prev = p
	return b
}

func (e *encoder) flush(b []byte) []byte {
	if e.run > 0 {
		b = append(b, opRun|byte(e.run-1))
		e.run = 0
	}
	return b
}

// appendChange picks the first of the RGBA literal, diff, luma and RGB
// literal chunks that can represent the step from prev to p. Channel
// differences wrap around so 255 to 0 is a step of +1.
func appendChange(b []byte, prev, p Pixel) []byte {
	if p.A != prev.A {
		return append(b, opRGBA, p.R, p.G, p.B, p.A)
	}

	dr := p.R - prev.R
	dg := p.G - prev.G
	db := p.B - prev.B

	if dr+2 <= 3 && dg+2 <= 3 && db+2 <= 3 {
		return append(b, opDiff|(dr+2)<<4|(dg+2)<<2|(db+2))
	}

	drdg := dr - dg
	dbdg := db - dg

	if dg+32 <= 63 && drdg+8 <= 15 && dbdg+8 <= 15 {
		return append(b, opLuma|(dg+32), (drdg+8)<<4|(dbdg+8))
	}

	return append(b, opRGB, p.R, p.G, p.B)
}

// An Encoder encodes images. The zero value emits exactly one chunk per
// pixel. An Encoder holds no state between calls and is safe for
// concurrent use.
type Encoder struct {
	// Runs collapses consecutive identical pixels into run chunks of up
	// to 62 pixels.
	Runs bool
}

// AppendPixels appends the chunk stream for pix to b. pix holds the
// interleaved channel values in row-major order, channels bytes per pixel.
// A 3 channel pixel is treated as fully opaque.
func (enc *Encoder) AppendPixels(b []byte, pix []byte, channels uint8) []byte {
	e := newEncoder(enc.Runs)
	n := int(channels)
	for i := 0; i+n <= len(pix); i += n {
		p := Pixel{pix[i+0], pix[i+1], pix[i+2], 0xff}
		if channels == RGBA {
			p.A = pix[i+3]
		}
		b = e.encode(b, p)
	}
	return e.flush(b)
}

// Append appends the complete encoding of pix, header, chunk stream and
// end marker, to b.
func (enc *Encoder) Append(b []byte, h Header, pix []byte) []byte {
	b = AppendHeader(b, h)
	b = enc.AppendPixels(b, pix, h.Channels)
	return append(b, EndMarker[:]...)
}

// Encode writes the Image m to w in QOI format.
func (enc *Encoder) Encode(w io.Writer, m image.Image) error {
	h, pix, err := Pixels(m)
	if err != nil {
		return err
	}

	// Worst case is a literal per pixel plus one tag byte
	b := make([]byte, 0, headerSize+len(pix)+int(h.Pixels())+len(EndMarker))

	_, err = w.Write(enc.Append(b, h, pix))
	return err
}

// Encode writes the Image m to w in QOI format using the default Encoder.
func Encode(w io.Writer, m image.Image) error {
	var enc Encoder
	return enc.Encode(w, m)
}

// EncodePixels returns the chunk stream for pix using the default Encoder.
func EncodePixels(pix []byte, channels uint8) []byte {
	var enc Encoder
	return enc.AppendPixels(nil, pix, channels)
}

// EncodeRaw returns the complete encoding of a width by height image held
// in pix using the default Encoder.
func EncodeRaw(width, height uint32, channels uint8, pix []byte) []byte {
	var enc Encoder
	return enc.Append(nil, NewHeader(width, height, channels), pix)
}

const maxUint32 = uint64(^uint32(0))

func u32FromInt(n int) (uint32, error) {
	if n <= 0 || uint64(n) > maxUint32 {
		return 0, ErrInvalidSize
	}
	return uint32(n), nil
}

func sixteenBit(m color.Model) bool {
	switch m {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return true
	}
	return false
}

// Pixels flattens m into the header and interleaved buffer expected by
// Encoder.Append. Images that report themselves as opaque use 3 channels,
// everything else uses 4 with non-premultiplied alpha.
func Pixels(m image.Image) (Header, []byte, error) {
	b := m.Bounds()

	width, err := u32FromInt(b.Dx())
	if err != nil {
		return Header{}, nil, err
	}
	height, err := u32FromInt(b.Dy())
	if err != nil {
		return Header{}, nil, err
	}

	if sixteenBit(m.ColorModel()) {
		return Header{}, nil, ErrUnsupportedColor
	}

	channels := uint8(RGBA)
	if o, ok := m.(interface{ Opaque() bool }); ok && o.Opaque() {
		channels = RGB
	}

	pix := make([]byte, 0, b.Dx()*b.Dy()*int(channels))

	if nm, ok := m.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := nm.PixOffset(b.Min.X, y)
			row := nm.Pix[i : i+b.Dx()*4]
			if channels == RGBA {
				pix = append(pix, row...)
				continue
			}
			for x := 0; x < len(row); x += 4 {
				pix = append(pix, row[x+0], row[x+1], row[x+2])
			}
		}
		return NewHeader(width, height, channels), pix, nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B)
			if channels == RGBA {
				pix = append(pix, c.A)
			}
		}
	}

	return NewHeader(width, height, channels), pix, nil
}
