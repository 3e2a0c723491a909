package models

import (
	"fmt"
	"io"
)

// TruncatedHeaderError reports a header region that ended before all of its
// bytes could be read.
type TruncatedHeaderError struct {
	Header string
	Want   int64
	Got    int64
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated %s: read %d of %d bytes", e.Header, e.Got, e.Want)
}

func (e *TruncatedHeaderError) Unwrap() error { return io.ErrUnexpectedEOF }

// TruncatedFileError reports a stream that ended before the declared number
// of waveforms was decoded.
type TruncatedFileError struct {
	Want    uint32
	Decoded uint32
	Err     error
}

func (e *TruncatedFileError) Error() string {
	return fmt.Sprintf("truncated file: decoded %d of %d waveforms: %v", e.Decoded, e.Want, e.Err)
}

func (e *TruncatedFileError) Unwrap() error { return e.Err }

// InvalidSizeError reports a header whose self-declared size is smaller than
// its known field layout.
type InvalidSizeError struct {
	Header   string
	Declared uint64
	Layout   int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("%s declares %d bytes, smaller than its %d byte layout", e.Header, e.Declared, e.Layout)
}

// MalformedTextError reports a fixed-width text field that does not decode.
type MalformedTextError struct {
	Field string
	Err   error
}

func (e *MalformedTextError) Error() string {
	return fmt.Sprintf("malformed text in field %s: %v", e.Field, e.Err)
}

func (e *MalformedTextError) Unwrap() error { return e.Err }

// UnsupportedElementWidthError reports a bytes-per-point value the sample
// decoder does not handle.
type UnsupportedElementWidthError struct {
	Width uint16
}

func (e *UnsupportedElementWidthError) Error() string {
	return fmt.Sprintf("unsupported sample width %d bytes (want 1 or 4)", e.Width)
}

// MalformedBufferError reports a sample buffer whose size is inconsistent
// with its element width or exceeds the configured limit.
type MalformedBufferError struct {
	Size   uint64
	Width  uint16
	Reason string
}

func (e *MalformedBufferError) Error() string {
	return fmt.Sprintf("malformed sample buffer (%d bytes, %d bytes per point): %s", e.Size, e.Width, e.Reason)
}

// IndexOutOfBoundsError reports an indexed sample access outside [0, Len).
type IndexOutOfBoundsError struct {
	Index int
	Len   int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("sample index %d out of range [0, %d)", e.Index, e.Len)
}
