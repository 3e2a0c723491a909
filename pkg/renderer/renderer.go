package renderer

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/analysis"
	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// RenderFile prints the file header and a summary row per waveform.
func RenderFile(f *models.File) {
	title := "Rigol Waveform Capture"
	if f.Path != "" {
		title += " - " + filepath.Base(f.Path)
	}
	pterm.DefaultHeader.WithFullWidth().
		WithBackgroundStyle(pterm.NewStyle(pterm.BgDarkGray)).
		WithTextStyle(pterm.NewStyle(pterm.FgLightWhite)).
		Println(title)

	pterm.Println()
	pterm.Info.Printf("Magic: %q | Version: %s | Declared size: %d bytes | Waveforms: %d\n",
		f.Header.Magic[:], f.Header.Version, f.Header.FileSize, f.Header.WaveformCount)
	if !f.Header.KnownMagic() {
		pterm.Warning.Printf("Unrecognized magic %q, decoded anyway\n", f.Header.Magic[:])
	}
	pterm.Println()

	pterm.DefaultTable.WithHasHeader().WithData(BuildWaveformTable(f)).Render()
}

// BuildWaveformTable returns one row per waveform with a header row.
func BuildWaveformTable(f *models.File) pterm.TableData {
	data := pterm.TableData{
		{"#", "Name", "Model", "Type", "Points", "Samples", "Data", "X Increment", "X Origin", "Captured"},
	}
	for i := range f.Waveforms {
		w := &f.Waveforms[i]
		captured := "-"
		if !w.Header.Date.IsZero() {
			captured = w.Header.Date.Format(models.TimestampLayout)
		}
		data = append(data, []string{
			fmt.Sprintf("%d", w.Index),
			w.Label(),
			w.Header.Model,
			w.Header.Type.String(),
			fmt.Sprintf("%d", w.Header.PointCount),
			fmt.Sprintf("%d", w.Buffer.Len()),
			w.Buffer.DataType(),
			formatAxis(w.Header.XIncrement, w.Header.XUnits),
			formatAxis(w.Header.XOrigin, w.Header.XUnits),
			captured,
		})
	}
	return data
}

// RenderWaveform prints the full header of one waveform in a box.
func RenderWaveform(w *models.Waveform) {
	title := fmt.Sprintf("%s | %s | %d samples", w.Label(), w.Header.Type, w.Buffer.Len())
	pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Println(BuildWaveformDetails(w))
}

// BuildWaveformDetails lists header fields as aligned key/value lines.
func BuildWaveformDetails(w *models.Waveform) string {
	h := w.Header
	dh := w.DataHeader
	rows := [][2]string{
		{"Model", h.Model},
		{"Header size", fmt.Sprintf("%d bytes", h.Size)},
		{"Buffers", fmt.Sprintf("%d", h.BufferCount)},
		{"Points", fmt.Sprintf("%d", h.PointCount)},
		{"Repeat count", fmt.Sprintf("%d", h.RepeatCount)},
		{"X display range", formatAxis(float64(h.XDisplayRange), h.XUnits)},
		{"X display origin", formatAxis(h.XDisplayOrigin, h.XUnits)},
		{"X increment", formatAxis(h.XIncrement, h.XUnits)},
		{"X origin", formatAxis(h.XOrigin, h.XUnits)},
		{"Duration", formatAxis(h.Duration(), h.XUnits)},
		{"Sample rate", fmt.Sprintf("%.6g /%s", h.SampleRate(), unitLabel(h.XUnits))},
		{"X units", h.XUnits.String()},
		{"Y units", h.YUnits.String()},
		{"Buffer type", dh.Type.String()},
		{"Bytes per point", fmt.Sprintf("%d", dh.BytesPerPoint)},
		{"Buffer size", fmt.Sprintf("%d bytes", dh.BufferSize)},
	}
	if !h.Date.IsZero() {
		rows = append(rows, [2]string{"Captured", h.Date.Format(models.TimestampLayout)})
	}

	var result strings.Builder
	for i, r := range rows {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(pterm.FgCyan.Sprintf("%-17s", r[0]))
		result.WriteString(" " + r[1])
	}
	return result.String()
}

// BuildSamplesTable returns up to limit (index, x, y) rows. A limit of zero
// or less returns every sample.
func BuildSamplesTable(w *models.Waveform, limit int) pterm.TableData {
	n := w.Buffer.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	data := pterm.TableData{
		{"Index", "X (" + unitLabel(w.Header.XUnits) + ")", "Y (" + unitLabel(w.Header.YUnits) + ")"},
	}
	for i, v := range w.Buffer.All() {
		if i >= n {
			break
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.9g", w.Buffer.XAt(i)),
			fmt.Sprintf("%.6g", v),
		})
	}
	return data
}

// RenderSamples prints the first limit samples of a waveform.
func RenderSamples(w *models.Waveform, limit int) {
	pterm.DefaultSection.Printf("Samples: %s\n", w.Label())
	pterm.DefaultTable.WithHasHeader().WithData(BuildSamplesTable(w, limit)).Render()
	if limit > 0 && w.Buffer.Len() > limit {
		pterm.Info.Printf("Showing %d of %d samples\n", limit, w.Buffer.Len())
	}
}

// BuildPlot draws the trace as a width x height character grid with a
// y-axis scale on the left and x-axis labels below.
func BuildPlot(w *models.Waveform, width, height int) string {
	width, height = max(width, 10), max(height, 2)
	n := w.Buffer.Len()
	if n == 0 {
		return "No samples to plot"
	}
	values := w.Buffer.Values()
	min, max := findMinMax(values)
	span := max - min
	if span == 0 {
		span = 1
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	for _, i := range analysis.DecimateIndices(n, width*4) {
		x := 0
		if n > 1 {
			x = int(float64(i) * float64(width-1) / float64(n-1))
		}
		y := int(float64(height-1) * (1 - (values[i]-min)/span))
		y = clamp(y, 0, height-1)
		if grid[y][x] == ' ' {
			grid[y][x] = '•'
		} else {
			grid[y][x] = '█'
		}
	}

	var result strings.Builder
	for row := range grid {
		level := max - float64(row)/float64(height-1)*(max-min)
		style := getColorStyle(level, min, max)
		result.WriteString(fmt.Sprintf("%10.4g │", level))
		result.WriteString(style.Sprint(string(grid[row])))
		result.WriteString("\n")
	}
	result.WriteString(strings.Repeat(" ", 11) + "└" + strings.Repeat("─", width) + "\n")

	first := fmt.Sprintf("%.4g", w.Buffer.XAt(0))
	last := fmt.Sprintf("%.4g %s", w.Buffer.XAt(n-1), unitLabel(w.Header.XUnits))
	gap := width - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	result.WriteString(strings.Repeat(" ", 12) + first + strings.Repeat(" ", gap) + last)
	return result.String()
}

// RenderPlot prints the trace plot of a waveform in a box.
func RenderPlot(w *models.Waveform, width, height int) {
	title := fmt.Sprintf("%s | %d samples | %s", w.Label(), w.Buffer.Len(), unitLabel(w.Header.YUnits))
	pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Println(BuildPlot(w, width, height))
}

// BuildStatsTable returns the statistics of a waveform as table rows.
func BuildStatsTable(w *models.Waveform, s analysis.Stats) pterm.TableData {
	unit := unitLabel(w.Header.YUnits)
	return pterm.TableData{
		{"Statistic", "Value"},
		{"Samples", fmt.Sprintf("%d", s.Count)},
		{"Min", fmt.Sprintf("%.6g %s", s.Min, unit)},
		{"Max", fmt.Sprintf("%.6g %s", s.Max, unit)},
		{"Peak-to-peak", fmt.Sprintf("%.6g %s", s.PeakToPeak, unit)},
		{"Mean", fmt.Sprintf("%.6g %s", s.Mean, unit)},
		{"Std dev", fmt.Sprintf("%.6g %s", s.StdDev, unit)},
		{"RMS", fmt.Sprintf("%.6g %s", s.RMS, unit)},
	}
}

// RenderStats prints statistics and, when bins is non-empty, the dominant
// spectral component.
func RenderStats(w *models.Waveform, s analysis.Stats, bins []analysis.Bin) {
	pterm.DefaultSection.Printf("Statistics: %s\n", w.Label())
	pterm.DefaultTable.WithHasHeader().WithData(BuildStatsTable(w, s)).Render()
	if peak, ok := analysis.Peak(bins); ok {
		pterm.Info.Printf("Dominant frequency: %.6g Hz (%.2f dB)\n", peak.Frequency, peak.DB)
	}
}

// BuildHexDump dumps up to limit raw bytes of the sample buffer.
func BuildHexDump(w *models.Waveform, limit int) string {
	raw := w.Buffer.Bytes()
	if limit > 0 && len(raw) > limit {
		raw = raw[:limit]
	}
	return hex.Dump(raw)
}

// RenderHexDump prints the raw sample bytes of a waveform.
func RenderHexDump(w *models.Waveform, limit int) {
	pterm.DefaultSection.Printf("Raw samples: %s (%d bytes per point)\n", w.Label(), w.Buffer.Width())
	pterm.Println(BuildHexDump(w, limit))
}

func formatAxis(v float64, u models.Unit) string {
	if sym := u.Symbol(); sym != "" {
		return fmt.Sprintf("%.6g %s", v, sym)
	}
	return fmt.Sprintf("%.6g", v)
}

func unitLabel(u models.Unit) string {
	if sym := u.Symbol(); sym != "" {
		return sym
	}
	return "a.u."
}

func getColorStyle(value, min, max float64) *pterm.Style {
	if max == min {
		return pterm.NewStyle(pterm.FgGray)
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.25:
		return pterm.NewStyle(pterm.FgCyan)
	case normalized < 0.5:
		return pterm.NewStyle(pterm.FgGreen)
	case normalized < 0.75:
		return pterm.NewStyle(pterm.FgYellow)
	default:
		return pterm.NewStyle(pterm.FgRed)
	}
}

func findMinMax(data []float64) (float64, float64) {
	min := data[0]
	max := data[0]

	for _, val := range data {
		if val < min {
			min = val
		}
		if val > max {
			max = val
		}
	}

	return min, max
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
