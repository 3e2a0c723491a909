package models

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Static layout sizes of the known header fields.
const (
	FileHeaderSize         = 16
	WaveformHeaderSize     = 128
	WaveformDataHeaderSize = 16
)

// TimestampLayout is the combined date and time text format of a waveform header.
const TimestampLayout = "2006-01-02 15:04:05"

var errInvalidUTF8 = errors.New("invalid UTF-8")

// Header is a fixed-layout binary header. Headers that report their own
// on-disk size may be followed by trailing bytes beyond LayoutSize.
type Header interface {
	encoding.BinaryUnmarshaler
	// Kind names the header in errors and logs.
	Kind() string
	// LayoutSize is the number of bytes covered by known fields.
	LayoutSize() int
	// DeclaredSize is the self-reported total size, if the header has one.
	DeclaredSize() (uint64, bool)
}

// FileHeader is the top-level record at the start of a capture file.
type FileHeader struct {
	Magic         [2]byte
	VersionRaw    [2]byte
	FileSize      uint64
	WaveformCount uint32

	Version string
}

func (h *FileHeader) Kind() string                 { return "file header" }
func (h *FileHeader) LayoutSize() int              { return FileHeaderSize }
func (h *FileHeader) DeclaredSize() (uint64, bool) { return 0, false }

// KnownMagic reports whether the magic tag belongs to a known producer.
func (h *FileHeader) KnownMagic() bool {
	switch string(h.Magic[:]) {
	case "RG", "AG":
		return true
	}
	return false
}

// UnmarshalBinary decodes the header fields from b.
func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < FileHeaderSize {
		return &TruncatedHeaderError{Header: h.Kind(), Want: FileHeaderSize, Got: int64(len(b))}
	}
	f := fields{b: b}
	var decoded FileHeader
	f.array(decoded.Magic[:])
	f.array(decoded.VersionRaw[:])
	decoded.FileSize = f.u64()
	decoded.WaveformCount = f.u32()

	version, err := decodeText("version", decoded.VersionRaw[:])
	if err != nil {
		return err
	}
	decoded.Version = version

	*h = decoded
	return nil
}

// WaveformHeader describes one captured trace.
type WaveformHeader struct {
	Size           uint32
	Type           WaveformType
	BufferCount    uint32
	PointCount     uint32
	RepeatCount    uint32
	XDisplayRange  float32
	XDisplayOrigin float64
	XIncrement     float64
	XOrigin        float64
	XUnits         Unit
	YUnits         Unit
	DateRaw        [16]byte
	TimeRaw        [16]byte
	ModelRaw       [24]byte
	NameRaw        [16]byte

	Date  time.Time
	Model string
	Name  string
}

func (h *WaveformHeader) Kind() string                 { return "waveform header" }
func (h *WaveformHeader) LayoutSize() int              { return WaveformHeaderSize }
func (h *WaveformHeader) DeclaredSize() (uint64, bool) { return uint64(h.Size), true }

// UnmarshalBinary decodes the header fields from b and derives the text and
// timestamp fields.
func (h *WaveformHeader) UnmarshalBinary(b []byte) error {
	if len(b) < WaveformHeaderSize {
		return &TruncatedHeaderError{Header: h.Kind(), Want: WaveformHeaderSize, Got: int64(len(b))}
	}
	f := fields{b: b}
	var decoded WaveformHeader
	decoded.Size = f.u32()
	decoded.Type = WaveformType(f.u32())
	decoded.BufferCount = f.u32()
	decoded.PointCount = f.u32()
	decoded.RepeatCount = f.u32()
	decoded.XDisplayRange = f.f32()
	decoded.XDisplayOrigin = f.f64()
	decoded.XIncrement = f.f64()
	decoded.XOrigin = f.f64()
	decoded.XUnits = Unit(f.u32())
	decoded.YUnits = Unit(f.u32())
	f.array(decoded.DateRaw[:])
	f.array(decoded.TimeRaw[:])
	f.array(decoded.ModelRaw[:])
	f.array(decoded.NameRaw[:])

	if err := decoded.derive(); err != nil {
		return err
	}
	*h = decoded
	return nil
}

func (h *WaveformHeader) derive() error {
	var err error
	if h.Name, err = decodeText("name", h.NameRaw[:]); err != nil {
		return err
	}
	if h.Model, err = decodeText("model", h.ModelRaw[:]); err != nil {
		return err
	}
	date, err := decodeText("date", h.DateRaw[:])
	if err != nil {
		return err
	}
	clock, err := decodeText("time", h.TimeRaw[:])
	if err != nil {
		return err
	}
	// Captures saved without a clock leave both fields empty.
	if date == "" && clock == "" {
		return nil
	}
	h.Date, err = time.Parse(TimestampLayout, date+" "+clock)
	if err != nil {
		return &MalformedTextError{Field: "date", Err: err}
	}
	return nil
}

// Duration is the time span covered by PointCount samples.
func (h *WaveformHeader) Duration() float64 {
	return float64(h.PointCount) * h.XIncrement
}

// SampleRate is the reciprocal of the x increment, or 0 when it is unset.
func (h *WaveformHeader) SampleRate() float64 {
	if h.XIncrement == 0 {
		return 0
	}
	return 1 / h.XIncrement
}

// WaveformDataHeader describes the sample buffer that follows it.
type WaveformDataHeader struct {
	Size          uint32
	Type          BufferType
	BytesPerPoint uint16
	BufferSize    uint64
}

func (h *WaveformDataHeader) Kind() string                 { return "waveform data header" }
func (h *WaveformDataHeader) LayoutSize() int              { return WaveformDataHeaderSize }
func (h *WaveformDataHeader) DeclaredSize() (uint64, bool) { return uint64(h.Size), true }

// UnmarshalBinary decodes the header fields from b.
func (h *WaveformDataHeader) UnmarshalBinary(b []byte) error {
	if len(b) < WaveformDataHeaderSize {
		return &TruncatedHeaderError{Header: h.Kind(), Want: WaveformDataHeaderSize, Got: int64(len(b))}
	}
	f := fields{b: b}
	h.Size = f.u32()
	h.Type = BufferType(f.u16())
	h.BytesPerPoint = f.u16()
	h.BufferSize = f.u64()
	return nil
}

// Waveform is one decoded (header, data header, buffer) triple.
type Waveform struct {
	Index      int
	Header     WaveformHeader
	DataHeader WaveformDataHeader
	Buffer     *SampleBuffer
}

// Label returns the waveform name, or a positional label when it has none.
func (w *Waveform) Label() string {
	if w.Header.Name != "" {
		return w.Header.Name
	}
	return fmt.Sprintf("wf%d", w.Index)
}

// File is a fully decoded capture file.
type File struct {
	Path      string
	Header    FileHeader
	Waveforms []Waveform
}

// decodeText trims NUL padding and validates the remaining bytes as UTF-8.
func decodeText(field string, raw []byte) (string, error) {
	trimmed := bytes.TrimRight(raw, "\x00")
	if !utf8.Valid(trimmed) {
		return "", &MalformedTextError{Field: field, Err: errInvalidUTF8}
	}
	return string(trimmed), nil
}

// fields walks a little-endian byte slice in layout order.
type fields struct {
	b   []byte
	off int
}

func (f *fields) u16() uint16 {
	v := binary.LittleEndian.Uint16(f.b[f.off:])
	f.off += 2
	return v
}

func (f *fields) u32() uint32 {
	v := binary.LittleEndian.Uint32(f.b[f.off:])
	f.off += 4
	return v
}

func (f *fields) u64() uint64 {
	v := binary.LittleEndian.Uint64(f.b[f.off:])
	f.off += 8
	return v
}

func (f *fields) f32() float32 { return math.Float32frombits(f.u32()) }
func (f *fields) f64() float64 { return math.Float64frombits(f.u64()) }

func (f *fields) array(dst []byte) {
	f.off += copy(dst, f.b[f.off:f.off+len(dst)])
}
