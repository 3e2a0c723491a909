package models

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func float32Bytes(values ...float32) []byte {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return raw
}

func TestSampleBuffer_Uint8(t *testing.T) {
	buf, err := NewSampleBuffer([]byte{10, 20, 30, 40}, 1, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 4 {
		t.Fatalf("expected 4 samples, got %d", buf.Len())
	}
	want := []float64{10, 20, 30, 40}
	for i, w := range want {
		got, err := buf.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("At(%d) = %v, want %v", i, got, w)
		}
	}
	if buf.DataType() != "uint8" {
		t.Fatalf("unexpected data type %q", buf.DataType())
	}
}

func TestSampleBuffer_Float32(t *testing.T) {
	want := []float32{-1.5, 0, 3.25, 1e-3}
	buf, err := NewSampleBuffer(float32Bytes(want...), 4, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), buf.Len())
	}
	for i, v := range buf.All() {
		if v != float64(want[i]) {
			t.Fatalf("sample %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestSampleBuffer_IterMatchesValues(t *testing.T) {
	raw := make([]byte, 257)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	buf, err := NewSampleBuffer(raw, 1, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lazy []float64
	for _, v := range buf.All() {
		lazy = append(lazy, v)
	}
	if len(lazy) != 257 {
		t.Fatalf("iterator yielded %d values, want 257", len(lazy))
	}

	eager := buf.Values()
	for i := range eager {
		indexed, err := buf.At(i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if lazy[i] != eager[i] || indexed != eager[i] {
			t.Fatalf("index %d: lazy=%v eager=%v indexed=%v", i, lazy[i], eager[i], indexed)
		}
	}

	// Iteration after materialization serves the cache.
	n := 0
	for i, v := range buf.All() {
		if v != eager[i] {
			t.Fatalf("cached iteration mismatch at %d", i)
		}
		n++
	}
	if n != 257 {
		t.Fatalf("cached iterator yielded %d values", n)
	}
}

func TestSampleBuffer_ValuesIdempotent(t *testing.T) {
	buf, err := NewSampleBuffer(float32Bytes(1, float32(math.NaN()), -2), 4, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := buf.Values()
	second := buf.Values()
	if len(first) != len(second) {
		t.Fatalf("length changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(second[i]) {
			t.Fatalf("value %d differs between calls", i)
		}
	}

	// Callers get their own copy.
	first[0] = 99
	if v, _ := buf.At(0); v != 1 {
		t.Fatalf("buffer mutated through returned slice: %v", v)
	}
}

func TestSampleBuffer_EarlyBreak(t *testing.T) {
	buf, _ := NewSampleBuffer([]byte{1, 2, 3, 4}, 1, 0, 1)
	n := 0
	for range buf.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2, got %d", n)
	}
}

func TestSampleBuffer_XAxis(t *testing.T) {
	buf, err := NewSampleBuffer([]byte{0, 0, 0, 0}, 1, 1.0, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1.0, 1.5, 2.0, 2.5}
	got := buf.XValues()
	if len(got) != len(want) {
		t.Fatalf("expected %d x values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSampleBuffer_Errors(t *testing.T) {
	t.Run("unsupported width", func(t *testing.T) {
		_, err := NewSampleBuffer(make([]byte, 9), 3, 0, 1)
		var target *UnsupportedElementWidthError
		if !errors.As(err, &target) {
			t.Fatalf("expected UnsupportedElementWidthError, got %v", err)
		}
		if target.Width != 3 {
			t.Fatalf("unexpected width %d", target.Width)
		}
	})

	t.Run("uneven size", func(t *testing.T) {
		_, err := NewSampleBuffer(make([]byte, 6), 4, 0, 1)
		var target *MalformedBufferError
		if !errors.As(err, &target) {
			t.Fatalf("expected MalformedBufferError, got %v", err)
		}
	})

	t.Run("index out of range", func(t *testing.T) {
		buf, _ := NewSampleBuffer([]byte{1, 2}, 1, 0, 1)
		for _, idx := range []int{-1, 2, 100} {
			_, err := buf.At(idx)
			var target *IndexOutOfBoundsError
			if !errors.As(err, &target) {
				t.Fatalf("At(%d): expected IndexOutOfBoundsError, got %v", idx, err)
			}
		}
	})
}

func TestSampleBuffer_Empty(t *testing.T) {
	buf, err := NewSampleBuffer(nil, 4, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Len() != 0 || len(buf.Values()) != 0 || len(buf.XValues()) != 0 {
		t.Fatalf("expected empty buffer")
	}
}
