package qoi

import (
	"bytes"
	"image"
	"image/color"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ref "github.com/xfmoulet/qoi"
)

func TestHash(t *testing.T) {
	assert.Equal(t, uint8(0), Hash(Pixel{}))
	assert.Equal(t, uint8(53), Hash(Pixel{0, 0, 0, 255}))
	assert.Equal(t, uint8(19), Hash(Pixel{10, 0, 0, 255}))
	assert.Equal(t, uint8(63), Hash(Pixel{1, 12, 0, 0}))

	for _, a := range []int{0, 1, 128, 255} {
		for r := 0; r < 256; r++ {
			for g := 0; g < 256; g++ {
				for b := 0; b < 256; b++ {
					h := Hash(Pixel{uint8(r), uint8(g), uint8(b), uint8(a)})
					if h > 63 || int(h) != (r*3+g*5+b*7+a*11)%64 {
						t.Fatalf("hash(%d, %d, %d, %d) = %d", r, g, b, a, h)
					}
				}
			}
		}
	}
}

func TestAppendChange(t *testing.T) {
	tables := []struct {
		name       string
		prev, curr Pixel
		want       []byte
	}{
		{"diff zero", Pixel{0, 0, 0, 255}, Pixel{0, 0, 0, 255}, []byte{0x6a}},
		{"diff wraparound", Pixel{255, 0, 0, 255}, Pixel{0, 0, 0, 255}, []byte{0x7a}},
		{"diff +1", Pixel{10, 10, 10, 255}, Pixel{11, 10, 10, 255}, []byte{0x7a}},
		{"diff -2", Pixel{10, 10, 10, 255}, Pixel{8, 10, 10, 255}, []byte{0x4a}},
		{"diff all channels", Pixel{10, 10, 10, 255}, Pixel{9, 11, 8, 255}, []byte{0x40 | 1<<4 | 3<<2 | 0}},
		{"luma from dr +2", Pixel{10, 10, 10, 255}, Pixel{12, 10, 10, 255}, []byte{0xa0, 0xa8}},
		{"luma from dr -3", Pixel{10, 10, 10, 255}, Pixel{7, 10, 10, 255}, []byte{0xa0, 0x58}},
		{"luma example", Pixel{0, 0, 0, 255}, Pixel{0, 7, 0, 255}, []byte{0xa7, 0x11}},
		{"luma dg 31", Pixel{0, 0, 0, 255}, Pixel{31, 31, 31, 255}, []byte{0xbf, 0x88}},
		{"rgb dg 32", Pixel{0, 0, 0, 255}, Pixel{32, 32, 32, 255}, []byte{0xfe, 32, 32, 32}},
		{"luma dg -32", Pixel{100, 100, 100, 255}, Pixel{68, 68, 68, 255}, []byte{0x80, 0x88}},
		{"rgb dg -33", Pixel{100, 100, 100, 255}, Pixel{67, 67, 67, 255}, []byte{0xfe, 67, 67, 67}},
		{"luma dr-dg 7", Pixel{0, 0, 0, 255}, Pixel{7, 0, 0, 255}, []byte{0xa0, 0xf8}},
		{"rgb dr-dg 8", Pixel{0, 0, 0, 255}, Pixel{8, 0, 0, 255}, []byte{0xfe, 8, 0, 0}},
		{"luma dr-dg -8", Pixel{0, 0, 0, 255}, Pixel{248, 0, 0, 255}, []byte{0xa0, 0x08}},
		{"rgb dr-dg -9", Pixel{0, 0, 0, 255}, Pixel{247, 0, 0, 255}, []byte{0xfe, 247, 0, 0}},
		{"luma db-dg 7", Pixel{0, 0, 0, 255}, Pixel{0, 0, 7, 255}, []byte{0xa0, 0x8f}},
		{"rgba alpha change", Pixel{0, 0, 0, 255}, Pixel{0, 0, 0, 254}, []byte{0xff, 0, 0, 0, 254}},
		{"rgba beats diff", Pixel{1, 2, 3, 0}, Pixel{1, 2, 3, 255}, []byte{0xff, 1, 2, 3, 255}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Equal(t, table.want, appendChange(nil, table.prev, table.curr))
		})
	}
}

func TestEncodePixels(t *testing.T) {
	tables := []struct {
		name     string
		channels uint8
		pix      []byte
		want     []byte
	}{
		{
			"index after first occurrence",
			RGBA,
			[]byte{0, 0, 0, 255, 0, 0, 0, 255},
			[]byte{0x6a, 0x35},
		},
		{
			"sentinel hit",
			RGBA,
			[]byte{0, 0, 0, 0},
			[]byte{0x00},
		},
		{
			"collision overwrites slot",
			RGBA,
			[]byte{0, 0, 0, 255, 64, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255},
			[]byte{0x6a, 0xfe, 64, 0, 0, 0xfe, 0, 0, 0, 0x35},
		},
		{
			"three channels are opaque",
			RGB,
			[]byte{0, 0, 0, 5, 5, 5, 5, 5, 5},
			[]byte{0x6a, 0xa5, 0x88, 0x00},
		},
		{
			"empty",
			RGB,
			nil,
			nil,
		},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Equal(t, table.want, EncodePixels(table.pix, table.channels))
		})
	}
}

func TestEncodeRuns(t *testing.T) {
	repeat := func(p []byte, n int) []byte {
		return bytes.Repeat(p, n)
	}
	black := []byte{0, 0, 0, 255}

	tables := []struct {
		name string
		pix  []byte
		want []byte
	}{
		{"run from start", repeat(black, 5), []byte{0xc4}},
		{"run split at 62", repeat(black, 70), []byte{0xfd, 0xc7}},
		{"run exactly 62", repeat(black, 62), []byte{0xfd}},
		{"run then diff", append(repeat(black, 3), 1, 0, 0, 255), []byte{0xc2, 0x7a}},
		{"run beats index", repeat([]byte{5, 5, 5, 255}, 2), []byte{0xa5, 0x88, 0xc0}},
	}

	enc := Encoder{Runs: true}
	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Equal(t, table.want, enc.AppendPixels(nil, table.pix, RGBA))
		})
	}

	// Without runs every pixel gets a chunk
	assert.Equal(t, []byte{0xa5, 0x88, 0x00}, EncodePixels(repeat([]byte{5, 5, 5, 255}, 2), RGBA))
	assert.Equal(t, append([]byte{0x6a}, bytes.Repeat([]byte{0x35}, 4)...), EncodePixels(repeat(black, 5), RGBA))
}

func TestEncodeRaw(t *testing.T) {
	b := EncodeRaw(2, 1, RGBA, []byte{0, 0, 0, 255, 10, 0, 0, 255})

	want := []byte{
		'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, 4, 1,
		0x6a,
		0xfe, 10, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 1,
	}
	assert.Len(t, b, 27)
	assert.Equal(t, want, b)
}

// chunkLengths splits a chunk stream without run chunks into the length of
// each chunk
func chunkLengths(t *testing.T, body []byte) []int {
	var lengths []int
	for i := 0; i < len(body); {
		n := 1
		switch {
		case body[i] == opRGB:
			n = 4
		case body[i] == opRGBA:
			n = 5
		case body[i]&0xc0 == opRun:
			t.Fatalf("unexpected run chunk %#02x at %d", body[i], i)
		case body[i]&0xc0 == opLuma:
			n = 2
		}
		lengths = append(lengths, n)
		i += n
		require.True(t, i <= len(body), "chunk overruns stream")
	}
	return lengths
}

func randomPixels(r *rand.Rand, n int, channels uint8) []byte {
	pix := make([]byte, 0, n*int(channels))
	p := []byte{128, 128, 128, 255}
	for i := 0; i < n; i++ {
		switch r.Intn(6) {
		case 0:
			// Small step
			for c := 0; c < 3; c++ {
				p[c] += byte(r.Intn(5) - 2)
			}
		case 1:
			// Luma sized step
			dg := byte(r.Intn(64) - 32)
			p[0] += dg + byte(r.Intn(16)-8)
			p[1] += dg
			p[2] += dg + byte(r.Intn(16)-8)
		case 2:
			r.Read(p[:3])
		case 3:
			p[3] = byte(r.Intn(4)) * 85
		case 4:
			// Revisit an earlier pixel
			if len(pix) > 0 {
				j := r.Intn(len(pix)/int(channels)) * int(channels)
				copy(p, pix[j:j+int(channels)])
			}
		}
		pix = append(pix, p[:channels]...)
	}
	return pix
}

func TestChunkCoverage(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, channels := range []uint8{RGB, RGBA} {
		pix := randomPixels(r, 4096, channels)
		body := EncodePixels(pix, channels)

		lengths := chunkLengths(t, body)
		assert.Len(t, lengths, 4096)

		seen := make(map[int]bool)
		total := 0
		for _, n := range lengths {
			seen[n] = true
			total += n
		}
		assert.Equal(t, len(body), total)

		for _, n := range []int{1, 2, 4} {
			assert.True(t, seen[n], "no chunk of length %d", n)
		}
		if channels == RGBA {
			assert.True(t, seen[5], "no RGBA literal")
		} else {
			assert.False(t, seen[5], "RGBA literal in opaque stream")
		}
	}
}

func randomImage(r *rand.Rand, width, height int, channels uint8) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	pix := randomPixels(r, width*height, channels)
	for i := 0; i < width*height; i++ {
		c := color.NRGBA{A: 255}
		c.R, c.G, c.B = pix[i*int(channels)], pix[i*int(channels)+1], pix[i*int(channels)+2]
		if channels == RGBA {
			c.A = pix[i*int(channels)+3]
		}
		m.SetNRGBA(i%width, i/width, c)
	}
	return m
}

func TestEncodeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	tables := []struct {
		name     string
		channels uint8
		runs     bool
	}{
		{"rgb", RGB, false},
		{"rgba", RGBA, false},
		{"rgb runs", RGB, true},
		{"rgba runs", RGBA, true},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			m := randomImage(r, 61, 47, table.channels)
			// Flat area to exercise runs
			for x := 0; x < 61; x++ {
				m.SetNRGBA(x, 10, color.NRGBA{1, 2, 3, 255})
			}

			enc := Encoder{Runs: table.runs}
			var buf bytes.Buffer
			require.Nil(t, enc.Encode(&buf, m))

			h, err := DecodeHeader(bytes.NewReader(buf.Bytes()))
			require.Nil(t, err)
			assert.Equal(t, NewHeader(61, 47, table.channels), h)

			got, err := ref.Decode(bytes.NewReader(buf.Bytes()))
			require.Nil(t, err)
			require.Equal(t, m.Bounds(), got.Bounds())

			for y := 0; y < 47; y++ {
				for x := 0; x < 61; x++ {
					want := m.NRGBAAt(x, y)
					have := color.NRGBAModel.Convert(got.At(x, y)).(color.NRGBA)
					if want != have {
						t.Fatalf("invalid pixel at (%d, %d): expected %+v, actual %+v", x, y, want, have)
					}
				}
			}

			assert.Equal(t, EndMarker[:], buf.Bytes()[buf.Len()-len(EndMarker):])
		})
	}
}

func TestEncodeConcurrent(t *testing.T) {
	m := randomImage(rand.New(rand.NewSource(3)), 32, 32, RGBA)

	var want bytes.Buffer
	require.Nil(t, Encode(&want, m))

	var enc Encoder
	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var buf bytes.Buffer
			if err := enc.Encode(&buf, m); err == nil {
				results[i] = buf.Bytes()
			}
		}(i)
	}
	wg.Wait()

	for _, b := range results {
		assert.Equal(t, want.Bytes(), b)
	}
}

func TestPixels(t *testing.T) {
	t.Run("sixteen bit", func(t *testing.T) {
		for _, m := range []image.Image{
			image.NewRGBA64(image.Rect(0, 0, 1, 1)),
			image.NewNRGBA64(image.Rect(0, 0, 1, 1)),
			image.NewGray16(image.Rect(0, 0, 1, 1)),
			image.NewAlpha16(image.Rect(0, 0, 1, 1)),
		} {
			_, _, err := Pixels(m)
			assert.Equal(t, ErrUnsupportedColor, err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := Pixels(image.NewNRGBA(image.Rect(0, 0, 0, 4)))
		assert.Equal(t, ErrInvalidSize, err)
	})

	t.Run("opaque", func(t *testing.T) {
		m := image.NewRGBA(image.Rect(0, 0, 2, 1))
		m.SetRGBA(0, 0, color.RGBA{1, 2, 3, 255})
		m.SetRGBA(1, 0, color.RGBA{4, 5, 6, 255})

		h, pix, err := Pixels(m)
		require.Nil(t, err)
		assert.Equal(t, NewHeader(2, 1, RGB), h)
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, pix)
	})

	t.Run("transparent", func(t *testing.T) {
		m := image.NewNRGBA(image.Rect(0, 0, 1, 2))
		m.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 4})
		m.SetNRGBA(0, 1, color.NRGBA{5, 6, 7, 255})

		h, pix, err := Pixels(m)
		require.Nil(t, err)
		assert.Equal(t, NewHeader(1, 2, RGBA), h)
		assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 255}, pix)
	})

	t.Run("sub image", func(t *testing.T) {
		m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				m.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 9, 255})
			}
		}

		h, pix, err := Pixels(m.SubImage(image.Rect(1, 2, 3, 4)))
		require.Nil(t, err)
		assert.Equal(t, NewHeader(2, 2, RGB), h)
		assert.Equal(t, []byte{1, 2, 9, 2, 2, 9, 1, 3, 9, 2, 3, 9}, pix)
	})

	t.Run("gray", func(t *testing.T) {
		m := image.NewGray(image.Rect(0, 0, 1, 1))
		m.SetGray(0, 0, color.Gray{42})

		h, pix, err := Pixels(m)
		require.Nil(t, err)
		assert.Equal(t, uint8(RGB), h.Channels)
		assert.Equal(t, []byte{42, 42, 42}, pix)
	})

	t.Run("paletted", func(t *testing.T) {
		m := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
			color.NRGBA{0, 0, 0, 0},
			color.NRGBA{255, 0, 0, 255},
		})
		m.SetColorIndex(1, 0, 1)

		h, pix, err := Pixels(m)
		require.Nil(t, err)
		assert.Equal(t, uint8(RGBA), h.Channels)
		assert.Equal(t, []byte{0, 0, 0, 0, 255, 0, 0, 255}, pix)
	})
}
