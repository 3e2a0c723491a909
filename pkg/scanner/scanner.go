package scanner

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/analysis"
	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// Headers larger than this are treated as noise.
const maxHeaderSize = 4096

// ScanResult holds a plausible waveform found at Offset.
type ScanResult struct {
	Offset        int
	Name          string
	Type          models.WaveformType
	Points        uint32
	BytesPerPoint uint16
	BufferSize    uint64
	// Complete reports whether the whole sample buffer lies inside the data.
	Complete bool
	Min      float64
	Max      float64
	Variance float64
}

// ScanForWaveforms reads filename and prints every offset where a waveform
// header and its data header look consistent. It is meant for captures too
// damaged for the regular decoder.
func ScanForWaveforms(filename string) error {
	spinner, _ := pterm.DefaultSpinner.Start("Scanning file for waveform headers...")

	f, err := os.Open(filename)
	if err != nil {
		spinner.Fail("Error opening file")
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		spinner.Fail("Error reading file")
		return err
	}

	spinner.Success(fmt.Sprintf("File loaded: %d bytes (0x%X)", len(data), len(data)))

	pterm.Println()
	pterm.DefaultSection.Println("Waveform Header Candidates")
	displayResults(Scan(data))
	return nil
}

// Scan checks every byte offset of data for a waveform header.
func Scan(data []byte) []ScanResult {
	var results []ScanResult
	for offset := 0; offset+models.WaveformHeaderSize+models.WaveformDataHeaderSize <= len(data); offset++ {
		if r := scanAt(data, offset); r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func scanAt(data []byte, offset int) *ScanResult {
	var h models.WaveformHeader
	if h.UnmarshalBinary(data[offset:]) != nil {
		return nil
	}
	if h.Size < models.WaveformHeaderSize || h.Size > maxHeaderSize {
		return nil
	}
	if h.Type > models.WaveformLogic || h.XUnits > models.UnitHertz || h.YUnits > models.UnitHertz {
		return nil
	}
	if h.PointCount == 0 || !(h.XIncrement > 0) || math.IsInf(h.XIncrement, 0) {
		return nil
	}

	dataOffset := offset + int(h.Size)
	if dataOffset+models.WaveformDataHeaderSize > len(data) {
		return nil
	}
	var dh models.WaveformDataHeader
	if dh.UnmarshalBinary(data[dataOffset:]) != nil {
		return nil
	}
	if dh.Size < models.WaveformDataHeaderSize || dh.Size > maxHeaderSize {
		return nil
	}
	if models.ValidateWidth(dh.BytesPerPoint) != nil {
		return nil
	}
	if dh.BufferSize != uint64(h.PointCount)*uint64(dh.BytesPerPoint) {
		return nil
	}

	result := &ScanResult{
		Offset:        offset,
		Name:          h.Name,
		Type:          h.Type,
		Points:        h.PointCount,
		BytesPerPoint: dh.BytesPerPoint,
		BufferSize:    dh.BufferSize,
	}

	// Summarize whatever part of the buffer is present.
	start := uint64(dataOffset) + uint64(dh.Size)
	end := min(start+dh.BufferSize, uint64(len(data)))
	result.Complete = end == start+dh.BufferSize
	if start >= end {
		return result
	}
	raw := data[start:end]
	raw = raw[:len(raw)-len(raw)%int(dh.BytesPerPoint)]
	buf, err := models.NewSampleBuffer(raw, dh.BytesPerPoint, h.XOrigin, h.XIncrement)
	if err != nil || buf.Len() == 0 {
		return result
	}
	s := analysis.Summarize(buf.Values())
	result.Min, result.Max, result.Variance = s.Min, s.Max, s.Variance
	return result
}

func displayResults(results []ScanResult) {
	if len(results) == 0 {
		pterm.Info.Println("No waveform headers found")
		return
	}

	tableData := pterm.TableData{
		{"Offset", "Name", "Type", "Points", "Width", "Complete", "Min", "Max", "Variance"},
	}

	for _, result := range results {
		tableData = append(tableData, []string{
			fmt.Sprintf("0x%06X", result.Offset),
			result.Name,
			result.Type.String(),
			fmt.Sprintf("%d", result.Points),
			fmt.Sprintf("%d", result.BytesPerPoint),
			fmt.Sprintf("%t", result.Complete),
			fmt.Sprintf("%.4g", result.Min),
			fmt.Sprintf("%.4g", result.Max),
			fmt.Sprintf("%.4g", result.Variance),
		})
	}

	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	pterm.Info.Printf("\nFound %d candidate waveform(s)\n", len(results))
}
