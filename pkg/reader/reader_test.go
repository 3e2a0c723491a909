package reader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// capture builds synthetic .bin images.
type capture struct {
	bytes.Buffer
}

func (c *capture) fileHeader(count uint32) *capture {
	c.WriteString("RG01")
	binary.Write(c, binary.LittleEndian, uint64(0))
	binary.Write(c, binary.LittleEndian, count)
	return c
}

type waveformOpts struct {
	name       string
	points     uint32
	xOrigin    float64
	xIncrement float64
	extra      int // trailing bytes after the known layout
	sizeDelta  int // added to the declared size on top of extra
}

func (c *capture) waveformHeader(w waveformOpts) *capture {
	b := make([]byte, models.WaveformHeaderSize+w.extra)
	binary.LittleEndian.PutUint32(b[0:], uint32(models.WaveformHeaderSize+w.extra+w.sizeDelta))
	binary.LittleEndian.PutUint32(b[4:], uint32(models.WaveformNormal))
	binary.LittleEndian.PutUint32(b[8:], 1)
	binary.LittleEndian.PutUint32(b[12:], w.points)
	binary.LittleEndian.PutUint32(b[16:], 1)
	binary.LittleEndian.PutUint64(b[32:], math.Float64bits(w.xIncrement))
	binary.LittleEndian.PutUint64(b[40:], math.Float64bits(w.xOrigin))
	binary.LittleEndian.PutUint32(b[48:], uint32(models.UnitSeconds))
	binary.LittleEndian.PutUint32(b[52:], uint32(models.UnitVolts))
	copy(b[56:72], "2024-01-02")
	copy(b[72:88], "03:04:05")
	copy(b[88:112], "DHO914S")
	copy(b[112:128], w.name)
	for i := models.WaveformHeaderSize; i < len(b); i++ {
		b[i] = 0xEE
	}
	c.Write(b)
	return c
}

func (c *capture) dataHeader(bpp uint16, size uint64, extra int) *capture {
	binary.Write(c, binary.LittleEndian, uint32(models.WaveformDataHeaderSize+extra))
	binary.Write(c, binary.LittleEndian, uint16(models.BufferNormal))
	binary.Write(c, binary.LittleEndian, bpp)
	binary.Write(c, binary.LittleEndian, size)
	c.Write(bytes.Repeat([]byte{0xDD}, extra))
	return c
}

func (c *capture) samples(raw ...byte) *capture {
	c.Write(raw)
	return c
}

func (c *capture) waveform(name string, raw ...byte) *capture {
	return c.waveformHeader(waveformOpts{name: name, points: uint32(len(raw)), xIncrement: 1}).
		dataHeader(1, uint64(len(raw)), 0).
		samples(raw...)
}

func TestDecode_EndToEnd(t *testing.T) {
	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH1", points: 4, xOrigin: 0, xIncrement: 1}).
		dataHeader(1, 4, 0).
		samples(10, 20, 30, 40)

	file, err := Decode(&c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(file.Header.Magic[:]) != "RG" || file.Header.Version != "01" {
		t.Fatalf("unexpected file header %+v", file.Header)
	}
	if len(file.Waveforms) != 1 {
		t.Fatalf("expected 1 waveform, got %d", len(file.Waveforms))
	}

	wf := file.Waveforms[0]
	if wf.Header.Name != "CH1" {
		t.Fatalf("unexpected name %q", wf.Header.Name)
	}
	wantY := []float64{10, 20, 30, 40}
	wantX := []float64{0, 1, 2, 3}
	gotY := wf.Buffer.Values()
	gotX := wf.Buffer.XValues()
	for i := range wantY {
		if gotY[i] != wantY[i] || gotX[i] != wantX[i] {
			t.Fatalf("point %d = (%v, %v), want (%v, %v)", i, gotX[i], gotY[i], wantX[i], wantY[i])
		}
	}
}

func TestDecode_Float32Samples(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(-4))

	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH3", points: 2, xOrigin: -1e-3, xIncrement: 1e-3}).
		dataHeader(4, 8, 0).
		samples(raw...)

	file, err := Decode(&c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := file.Waveforms[0].Buffer.Values()
	if len(got) != 2 || got[0] != 0.25 || got[1] != -4 {
		t.Fatalf("unexpected samples %v", got)
	}
}

func TestDecode_SkipsTrailingHeaderBytes(t *testing.T) {
	var c capture
	c.fileHeader(2).
		waveformHeader(waveformOpts{name: "CH1", points: 2, xIncrement: 1, extra: 12}).
		dataHeader(1, 2, 8).
		samples(1, 2).
		waveform("SENTINEL", 7, 8, 9)

	file, err := Decode(&c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := file.Waveforms[0].Buffer.Values(); got[0] != 1 || got[1] != 2 {
		t.Fatalf("first waveform samples %v", got)
	}
	second := file.Waveforms[1]
	if second.Header.Name != "SENTINEL" {
		t.Fatalf("sentinel header misread: %q", second.Header.Name)
	}
	if got := second.Buffer.Values(); len(got) != 3 || got[0] != 7 || got[2] != 9 {
		t.Fatalf("sentinel samples %v", got)
	}
	if c.Len() != 0 {
		t.Fatalf("expected stream fully consumed, %d bytes left", c.Len())
	}
}

func TestReadHeader_ConsumesExactlyDeclaredSize(t *testing.T) {
	for _, extra := range []int{0, 1, 7, 64} {
		var c capture
		c.waveformHeader(waveformOpts{name: "CH1", xIncrement: 1, extra: extra})
		c.WriteString("NEXT")

		var h models.WaveformHeader
		if err := New().readHeader(&c, &h); err != nil {
			t.Fatalf("extra=%d: unexpected error: %v", extra, err)
		}
		if rest := c.String(); rest != "NEXT" {
			t.Fatalf("extra=%d: stream resumed at %q", extra, rest)
		}
	}
}

func TestDecode_InvalidDeclaredSize(t *testing.T) {
	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH1", points: 1, xIncrement: 1, sizeDelta: -1}).
		dataHeader(1, 1, 0).
		samples(1)

	_, err := Decode(&c)
	var target *models.InvalidSizeError
	if !errors.As(err, &target) {
		t.Fatalf("expected InvalidSizeError, got %v", err)
	}
	if target.Declared != models.WaveformHeaderSize-1 || target.Layout != models.WaveformHeaderSize {
		t.Fatalf("unexpected sizes %+v", target)
	}
}

func TestDecode_InvalidDataHeaderSize(t *testing.T) {
	var c capture
	c.fileHeader(1).waveformHeader(waveformOpts{name: "CH1", xIncrement: 1})
	binary.Write(&c, binary.LittleEndian, uint32(4))
	binary.Write(&c, binary.LittleEndian, uint16(1))
	binary.Write(&c, binary.LittleEndian, uint16(1))
	binary.Write(&c, binary.LittleEndian, uint64(0))

	_, err := Decode(&c)
	var target *models.InvalidSizeError
	if !errors.As(err, &target) {
		t.Fatalf("expected InvalidSizeError, got %v", err)
	}
}

func TestDecode_TruncatedFile(t *testing.T) {
	tests := []struct {
		name string
		cut  int // bytes removed from the end of a two-waveform image
	}{
		{"second waveform missing", -1},
		{"cut in sample buffer", 1},
		{"cut in data header", 3 + 5},
		{"cut in header trailer", 3 + 16 + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c capture
			c.fileHeader(2).waveform("CH1", 1, 2, 3)
			if tt.cut >= 0 {
				c.waveformHeader(waveformOpts{name: "CH2", points: 3, xIncrement: 1, extra: 4}).
					dataHeader(1, 3, 0).
					samples(4, 5, 6)
				c.Truncate(c.Len() - tt.cut)
			}

			file, err := Decode(&c)
			if file != nil {
				t.Fatalf("expected no partial result")
			}
			var target *models.TruncatedFileError
			if !errors.As(err, &target) {
				t.Fatalf("expected TruncatedFileError, got %v", err)
			}
			if target.Want != 2 || target.Decoded != 1 {
				t.Fatalf("unexpected counts %+v", target)
			}
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("expected unexpected EOF in chain: %v", err)
			}
		})
	}
}

func TestDecode_TruncatedFileHeader(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("RG01\x00\x00")))
	var target *models.TruncatedHeaderError
	if !errors.As(err, &target) {
		t.Fatalf("expected TruncatedHeaderError, got %v", err)
	}
	if target.Want != models.FileHeaderSize || target.Got != 6 {
		t.Fatalf("unexpected counts %+v", target)
	}
}

func TestDecode_UnsupportedWidth(t *testing.T) {
	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH1", points: 2, xIncrement: 1}).
		dataHeader(3, 6, 0).
		samples(1, 2, 3, 4, 5, 6)

	_, err := Decode(&c)
	var target *models.UnsupportedElementWidthError
	if !errors.As(err, &target) {
		t.Fatalf("expected UnsupportedElementWidthError, got %v", err)
	}
}

func TestDecode_MalformedBuffer(t *testing.T) {
	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH1", points: 1, xIncrement: 1}).
		dataHeader(4, 6, 0).
		samples(1, 2, 3, 4, 5, 6)

	_, err := Decode(&c)
	var target *models.MalformedBufferError
	if !errors.As(err, &target) {
		t.Fatalf("expected MalformedBufferError, got %v", err)
	}
}

func TestDecode_BufferLimit(t *testing.T) {
	var c capture
	c.fileHeader(1).
		waveformHeader(waveformOpts{name: "CH1", points: 8, xIncrement: 1}).
		dataHeader(1, 8, 0).
		samples(make([]byte, 8)...)

	_, err := New(WithMaxBufferSize(4)).Decode(&c)
	var target *models.MalformedBufferError
	if !errors.As(err, &target) {
		t.Fatalf("expected MalformedBufferError, got %v", err)
	}
}

func TestDecode_ZeroWaveforms(t *testing.T) {
	var c capture
	c.fileHeader(0)
	file, err := Decode(&c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Waveforms) != 0 {
		t.Fatalf("expected no waveforms")
	}
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (t *trackingCloser) Close() error {
	t.closed = true
	return nil
}

func TestDecodeAndClose_ClosesOnEveryPath(t *testing.T) {
	var ok capture
	ok.fileHeader(1).waveform("CH1", 1)

	var bad capture
	bad.fileHeader(3).waveform("CH1", 1)

	for name, src := range map[string]*capture{"success": &ok, "failure": &bad} {
		rc := &trackingCloser{Reader: src}
		_, err := New().DecodeAndClose(rc)
		if name == "success" && err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name == "failure" && err == nil {
			t.Fatalf("expected error")
		}
		if !rc.closed {
			t.Fatalf("%s: source not closed", name)
		}
	}
}

func TestReadFile(t *testing.T) {
	var c capture
	c.fileHeader(2).waveform("CH1", 1, 2).waveform("CH2", 3, 4)

	path := filepath.Join(t.TempDir(), "capture.bin")
	if err := os.WriteFile(path, c.Bytes(), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Path != path || len(file.Waveforms) != 2 {
		t.Fatalf("unexpected file %q with %d waveforms", file.Path, len(file.Waveforms))
	}
	if file.Waveforms[1].Index != 1 || file.Waveforms[1].Label() != "CH2" {
		t.Fatalf("unexpected second waveform %+v", file.Waveforms[1].Header)
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.bin")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
