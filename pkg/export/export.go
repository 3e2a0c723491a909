package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// Export writes f to exportPath in the given format ("csv" or "json") and
// reports progress on a spinner.
func Export(f *models.File, exportPath, format string) error {
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Exporting %d waveform(s) as %s...", len(f.Waveforms), format))

	var written []string
	var err error
	switch format {
	case "csv":
		written, err = ExportCSV(f, exportPath)
	case "json":
		var name string
		name, err = ExportJSON(f, exportPath)
		written = []string{name}
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		spinner.Fail(fmt.Sprintf("Export failed: %v", err))
		return err
	}

	spinner.Success(fmt.Sprintf("Exported %d file(s) to %s", len(written), exportPath))
	return nil
}

// ExportCSV writes one CSV file per waveform into exportPath and returns the
// created file names.
func ExportCSV(f *models.File, exportPath string) ([]string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var written []string
	for i := range f.Waveforms {
		w := &f.Waveforms[i]
		csvFilename := filepath.Join(exportPath, CSVFilename(w))
		if err := exportWaveformToCSV(w, csvFilename); err != nil {
			return written, fmt.Errorf("failed to export %s: %w", w.Label(), err)
		}
		written = append(written, csvFilename)
	}
	return written, nil
}

// CSVFilename derives the export file name of a waveform.
func CSVFilename(w *models.Waveform) string {
	name := strings.ToLower(strings.TrimSpace(w.Label()))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	return fmt.Sprintf("%02d_%s.csv", w.Index, name)
}

func exportWaveformToCSV(w *models.Waveform, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, w); err != nil {
		return err
	}
	return file.Close()
}

// WriteCSV writes a metadata preamble followed by index,x,y rows.
func WriteCSV(out io.Writer, w *models.Waveform) error {
	writer := csv.NewWriter(out)

	// Write metadata as comments
	meta := []string{
		fmt.Sprintf("# %s", w.Label()),
		fmt.Sprintf("# Model: %s", w.Header.Model),
		fmt.Sprintf("# Type: %s", w.Header.Type),
		fmt.Sprintf("# Points: %d", w.Buffer.Len()),
		fmt.Sprintf("# X: origin %g, increment %g, units %s", w.Header.XOrigin, w.Header.XIncrement, w.Header.XUnits),
		fmt.Sprintf("# Y units: %s", w.Header.YUnits),
	}
	if !w.Header.Date.IsZero() {
		meta = append(meta, fmt.Sprintf("# Captured: %s", w.Header.Date.Format(models.TimestampLayout)))
	}
	for _, m := range meta {
		if err := writer.Write([]string{m}); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{"index", "x", "y"}); err != nil {
		return err
	}
	for i, v := range w.Buffer.All() {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(w.Buffer.XAt(i), 'g', -1, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FileDocument is the JSON form of a decoded capture.
type FileDocument struct {
	Magic         string             `json:"magic"`
	Version       string             `json:"version"`
	FileSize      uint64             `json:"fileSize"`
	WaveformCount uint32             `json:"waveformCount"`
	Waveforms     []WaveformDocument `json:"waveforms"`
}

// WaveformDocument is the JSON form of one waveform.
type WaveformDocument struct {
	Index         int       `json:"index"`
	Name          string    `json:"name"`
	Model         string    `json:"model"`
	Type          string    `json:"type"`
	Captured      string    `json:"captured,omitempty"`
	PointCount    uint32    `json:"pointCount"`
	XOrigin       float64   `json:"xOrigin"`
	XIncrement    float64   `json:"xIncrement"`
	XUnits        string    `json:"xUnits"`
	YUnits        string    `json:"yUnits"`
	BufferType    string    `json:"bufferType"`
	BytesPerPoint uint16    `json:"bytesPerPoint"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
}

// NewWaveformDocument converts w, keeping the samples at the given indices.
// A nil indices slice keeps every sample.
func NewWaveformDocument(w *models.Waveform, indices []int) WaveformDocument {
	doc := WaveformDocument{
		Index:         w.Index,
		Name:          w.Header.Name,
		Model:         w.Header.Model,
		Type:          w.Header.Type.String(),
		PointCount:    w.Header.PointCount,
		XOrigin:       w.Header.XOrigin,
		XIncrement:    w.Header.XIncrement,
		XUnits:        w.Header.XUnits.String(),
		YUnits:        w.Header.YUnits.String(),
		BufferType:    w.DataHeader.Type.String(),
		BytesPerPoint: w.DataHeader.BytesPerPoint,
	}
	if !w.Header.Date.IsZero() {
		doc.Captured = w.Header.Date.Format(models.TimestampLayout)
	}

	values := w.Buffer.Values()
	if indices == nil {
		doc.X = w.Buffer.XValues()
		doc.Y = values
		return doc
	}
	doc.X = make([]float64, len(indices))
	doc.Y = make([]float64, len(indices))
	for j, i := range indices {
		doc.X[j] = w.Buffer.XAt(i)
		doc.Y[j] = values[i]
	}
	return doc
}

// NewFileDocument converts a decoded file with every sample.
func NewFileDocument(f *models.File) FileDocument {
	doc := FileDocument{
		Magic:         string(f.Header.Magic[:]),
		Version:       f.Header.Version,
		FileSize:      f.Header.FileSize,
		WaveformCount: f.Header.WaveformCount,
		Waveforms:     make([]WaveformDocument, 0, len(f.Waveforms)),
	}
	for i := range f.Waveforms {
		doc.Waveforms = append(doc.Waveforms, NewWaveformDocument(&f.Waveforms[i], nil))
	}
	return doc
}

// WriteJSON encodes f as an indented JSON document.
func WriteJSON(out io.Writer, f *models.File) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(NewFileDocument(f))
}

// ExportJSON writes f to a single JSON file in exportPath and returns its name.
func ExportJSON(f *models.File, exportPath string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	base := "capture"
	if f.Path != "" {
		base = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	}
	filename := filepath.Join(exportPath, base+".json")

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteJSON(file, f); err != nil {
		return "", err
	}
	return filename, file.Close()
}
