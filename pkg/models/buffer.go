package models

import (
	"encoding/binary"
	"iter"
	"math"
	"slices"
	"sync"
)

// SampleBuffer is the raw sample region of a waveform. Samples are decoded
// on access; Values decodes them all once and keeps the result.
type SampleBuffer struct {
	raw        []byte
	width      int
	xOrigin    float64
	xIncrement float64

	once   sync.Once
	values []float64
}

// ValidateWidth reports whether bpp is a supported sample width.
func ValidateWidth(bpp uint16) error {
	switch bpp {
	case 1, 4:
		return nil
	}
	return &UnsupportedElementWidthError{Width: bpp}
}

// NewSampleBuffer wraps raw as bpp-wide samples on the axis
// x(i) = xOrigin + i*xIncrement. The buffer takes ownership of raw.
func NewSampleBuffer(raw []byte, bpp uint16, xOrigin, xIncrement float64) (*SampleBuffer, error) {
	if err := ValidateWidth(bpp); err != nil {
		return nil, err
	}
	if len(raw)%int(bpp) != 0 {
		return nil, &MalformedBufferError{
			Size:   uint64(len(raw)),
			Width:  bpp,
			Reason: "size is not a multiple of the sample width",
		}
	}
	return &SampleBuffer{
		raw:        raw,
		width:      int(bpp),
		xOrigin:    xOrigin,
		xIncrement: xIncrement,
	}, nil
}

// Len returns the number of samples.
func (b *SampleBuffer) Len() int {
	return len(b.raw) / b.width
}

// Width returns the bytes per sample.
func (b *SampleBuffer) Width() int {
	return b.width
}

// DataType names the element encoding: "uint8" or "float32".
func (b *SampleBuffer) DataType() string {
	if b.width == 1 {
		return "uint8"
	}
	return "float32"
}

// At decodes the sample at index i.
func (b *SampleBuffer) At(i int) (float64, error) {
	if i < 0 || i >= b.Len() {
		return 0, &IndexOutOfBoundsError{Index: i, Len: b.Len()}
	}
	if b.values != nil {
		return b.values[i], nil
	}
	return b.decode(i), nil
}

func (b *SampleBuffer) decode(i int) float64 {
	off := i * b.width
	if b.width == 1 {
		return float64(b.raw[off])
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b.raw[off:])))
}

// All yields every sample in order without materializing the buffer.
func (b *SampleBuffer) All() iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		cached := b.values
		for i := 0; i < b.Len(); i++ {
			v := 0.0
			if cached != nil {
				v = cached[i]
			} else {
				v = b.decode(i)
			}
			if !yield(i, v) {
				return
			}
		}
	}
}

// Values decodes every sample. The first call caches the result; later calls
// copy from the cache without touching the raw bytes.
func (b *SampleBuffer) Values() []float64 {
	b.once.Do(func() {
		values := make([]float64, b.Len())
		for i := range values {
			values[i] = b.decode(i)
		}
		b.values = values
	})
	return slices.Clone(b.values)
}

// XAt returns the x coordinate of sample i.
func (b *SampleBuffer) XAt(i int) float64 {
	return b.xOrigin + float64(i)*b.xIncrement
}

// X yields the x coordinate of every sample in order.
func (b *SampleBuffer) X() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for i := 0; i < b.Len(); i++ {
			if !yield(b.XAt(i)) {
				return
			}
		}
	}
}

// XValues returns all x coordinates.
func (b *SampleBuffer) XValues() []float64 {
	return slices.Collect(b.X())
}

// Bytes returns a copy of the raw sample region.
func (b *SampleBuffer) Bytes() []byte {
	return slices.Clone(b.raw)
}
