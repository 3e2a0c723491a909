package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// DefaultMaxBufferSize bounds the sample buffer a data header may declare.
const DefaultMaxBufferSize = 1 << 30

// Reader decodes Rigol binary waveform captures.
type Reader struct {
	log           *pterm.Logger
	maxBufferSize uint64
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for decode tracing.
func WithLogger(l *pterm.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMaxBufferSize overrides DefaultMaxBufferSize. Zero keeps the default.
func WithMaxBufferSize(n uint64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxBufferSize = n
		}
	}
}

// New creates a Reader.
func New(opts ...Option) *Reader {
	r := &Reader{
		log:           pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
		maxBufferSize: DefaultMaxBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var std = New()

// ReadFile decodes the capture at path with default settings.
func ReadFile(path string) (*models.File, error) {
	return std.ReadFile(path)
}

// Decode decodes a capture from src with default settings.
func Decode(src io.Reader) (*models.File, error) {
	return std.Decode(src)
}

// ReadFile opens and decodes the capture at path.
func (r *Reader) ReadFile(path string) (*models.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	var size int64 = -1
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	file, err := r.DecodeAndClose(f)
	if err != nil {
		return nil, err
	}
	file.Path = path

	if size >= 0 && uint64(size) != file.Header.FileSize {
		r.log.Warn("declared file size differs from size on disk",
			r.log.Args("path", path, "declared", file.Header.FileSize, "actual", size))
	}
	r.log.Info("decoded capture",
		r.log.Args("path", path, "version", file.Header.Version, "waveforms", len(file.Waveforms)))
	return file, nil
}

// DecodeAndClose decodes a capture from src and closes it on every path.
func (r *Reader) DecodeAndClose(src io.ReadCloser) (*models.File, error) {
	defer src.Close()
	return r.Decode(bufio.NewReader(src))
}

// Decode reads the file header and every waveform it declares. The first
// failure aborts the decode; no partial result is returned.
func (r *Reader) Decode(src io.Reader) (*models.File, error) {
	var fh models.FileHeader
	if err := r.readHeader(src, &fh); err != nil {
		return nil, err
	}
	if !fh.KnownMagic() {
		r.log.Warn("unrecognized magic", r.log.Args("magic", fmt.Sprintf("%q", fh.Magic[:])))
	}

	file := &models.File{
		Header:    fh,
		Waveforms: make([]models.Waveform, 0, min(fh.WaveformCount, 64)),
	}
	for i := uint32(0); i < fh.WaveformCount; i++ {
		wf, err := r.readWaveform(src, int(i))
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, &models.TruncatedFileError{Want: fh.WaveformCount, Decoded: i, Err: err}
			}
			return nil, fmt.Errorf("waveform %d: %w", i, err)
		}
		file.Waveforms = append(file.Waveforms, wf)
	}
	return file, nil
}

func (r *Reader) readWaveform(src io.Reader, index int) (models.Waveform, error) {
	wf := models.Waveform{Index: index}
	if err := r.readHeader(src, &wf.Header); err != nil {
		return wf, err
	}
	if err := r.readHeader(src, &wf.DataHeader); err != nil {
		return wf, err
	}

	dh := wf.DataHeader
	if err := models.ValidateWidth(dh.BytesPerPoint); err != nil {
		return wf, err
	}
	if dh.BufferSize > r.maxBufferSize {
		return wf, &models.MalformedBufferError{
			Size:   dh.BufferSize,
			Width:  dh.BytesPerPoint,
			Reason: fmt.Sprintf("exceeds the %d byte limit", r.maxBufferSize),
		}
	}

	raw := make([]byte, dh.BufferSize)
	if n, err := io.ReadFull(src, raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return wf, fmt.Errorf("error reading sample buffer: read %d of %d bytes: %w", n, dh.BufferSize, io.ErrUnexpectedEOF)
		}
		return wf, fmt.Errorf("error reading sample buffer: %w", err)
	}

	buf, err := models.NewSampleBuffer(raw, dh.BytesPerPoint, wf.Header.XOrigin, wf.Header.XIncrement)
	if err != nil {
		return wf, err
	}
	wf.Buffer = buf

	r.log.Debug("decoded waveform", r.log.Args(
		"index", index,
		"name", wf.Header.Name,
		"points", wf.Header.PointCount,
		"samples", buf.Len(),
		"type", dh.Type.String(),
	))
	return wf, nil
}

// readHeader decodes the static layout of h, then discards any trailing
// bytes the header declares beyond it.
func (r *Reader) readHeader(src io.Reader, h models.Header) error {
	buf := make([]byte, h.LayoutSize())
	if n, err := io.ReadFull(src, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return &models.TruncatedHeaderError{Header: h.Kind(), Want: int64(len(buf)), Got: int64(n)}
		}
		return fmt.Errorf("error reading %s: %w", h.Kind(), err)
	}
	if err := h.UnmarshalBinary(buf); err != nil {
		return err
	}

	extra, err := trailingBytes(h)
	if err != nil {
		return err
	}
	if extra > 0 {
		skipped, err := io.CopyN(io.Discard, src, extra)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &models.TruncatedHeaderError{Header: h.Kind() + " trailer", Want: extra, Got: skipped}
			}
			return fmt.Errorf("error skipping %s trailer: %w", h.Kind(), err)
		}
	}

	r.log.Trace("decoded header", r.log.Args("kind", h.Kind(), "layout", h.LayoutSize(), "skipped", extra))
	return nil
}

// trailingBytes returns how far the declared size of h exceeds its layout.
func trailingBytes(h models.Header) (int64, error) {
	declared, ok := h.DeclaredSize()
	if !ok {
		return 0, nil
	}
	layout := uint64(h.LayoutSize())
	if declared < layout {
		return 0, &models.InvalidSizeError{Header: h.Kind(), Declared: declared, Layout: h.LayoutSize()}
	}
	return int64(declared - layout), nil
}
