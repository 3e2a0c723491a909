package compare

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/tosih/rigol-bin-tool/pkg/analysis"
	"github.com/tosih/rigol-bin-tool/pkg/models"
)

// WaveformDiff holds the sample differences of one waveform pair, B - A.
type WaveformDiff struct {
	Index int
	NameA string
	NameB string
	LenA  int
	LenB  int
	// Missing is "A" or "B" when the waveform exists in only one file.
	Missing string

	Changed     int
	MeanDiff    float64
	MaxIncrease float64
	MaxDecrease float64
	Diff        []float64
}

// Compared returns the number of sample positions present in both files.
func (d *WaveformDiff) Compared() int {
	return len(d.Diff)
}

// Files pairs waveforms by index and compares their samples.
func Files(a, b *models.File) []WaveformDiff {
	n := max(len(a.Waveforms), len(b.Waveforms))
	diffs := make([]WaveformDiff, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a.Waveforms):
			w := &b.Waveforms[i]
			diffs = append(diffs, WaveformDiff{Index: i, NameB: w.Label(), LenB: w.Buffer.Len(), Missing: "A"})
		case i >= len(b.Waveforms):
			w := &a.Waveforms[i]
			diffs = append(diffs, WaveformDiff{Index: i, NameA: w.Label(), LenA: w.Buffer.Len(), Missing: "B"})
		default:
			diffs = append(diffs, Waveforms(&a.Waveforms[i], &b.Waveforms[i]))
		}
	}
	return diffs
}

// Waveforms compares the overlapping samples of two waveforms.
func Waveforms(a, b *models.Waveform) WaveformDiff {
	d := WaveformDiff{
		Index: a.Index,
		NameA: a.Label(),
		NameB: b.Label(),
		LenA:  a.Buffer.Len(),
		LenB:  b.Buffer.Len(),
	}

	va := a.Buffer.Values()
	vb := b.Buffer.Values()
	n := min(len(va), len(vb))
	d.Diff = make([]float64, n)

	var total float64
	for i := 0; i < n; i++ {
		delta := vb[i] - va[i]
		d.Diff[i] = delta
		if delta == 0 {
			continue
		}
		d.Changed++
		total += delta
		if delta > d.MaxIncrease {
			d.MaxIncrease = delta
		}
		if delta < d.MaxDecrease {
			d.MaxDecrease = delta
		}
	}
	if d.Changed > 0 {
		d.MeanDiff = total / float64(d.Changed)
	}
	return d
}

// CompareFiles prints the differences between two decoded files.
func CompareFiles(a, b *models.File) {
	pterm.DefaultHeader.WithFullWidth().Println("Capture Comparison")
	pterm.Info.Printf("A: %s (%d waveforms)\n", displayName(a), len(a.Waveforms))
	pterm.Info.Printf("B: %s (%d waveforms)\n", displayName(b), len(b.Waveforms))

	for _, d := range Files(a, b) {
		pterm.Println()
		switch d.Missing {
		case "A":
			pterm.DefaultSection.Printf("Waveform %d: %s\n", d.Index, d.NameB)
			pterm.Warning.Println("Only present in B")
			continue
		case "B":
			pterm.DefaultSection.Printf("Waveform %d: %s\n", d.Index, d.NameA)
			pterm.Warning.Println("Only present in A")
			continue
		}
		pterm.DefaultSection.Printf("Waveform %d: %s vs %s\n", d.Index, d.NameA, d.NameB)
		displayComparison(&d)
	}
}

func displayComparison(d *WaveformDiff) {
	if d.LenA != d.LenB {
		pterm.Warning.Printf("Sample counts differ: %d vs %d, comparing the first %d\n", d.LenA, d.LenB, d.Compared())
	}
	if d.Compared() == 0 {
		pterm.Info.Println("No overlapping samples")
		return
	}

	pterm.Info.Printf("Changed samples: %d / %d (%.1f%%)\n",
		d.Changed, d.Compared(), float64(d.Changed)/float64(d.Compared())*100)
	pterm.Info.Printf("Average change: %.4g\n", d.MeanDiff)
	pterm.Info.Printf("Max increase: %.4g\n", d.MaxIncrease)
	pterm.Info.Printf("Max decrease: %.4g\n", d.MaxDecrease)

	pterm.Println("\nDifference trace (B - A):")
	pterm.DefaultBox.Println(visualizeDifferences(d.Diff, 64))
}

func visualizeDifferences(diff []float64, width int) string {
	var result strings.Builder

	// Find max absolute difference for scaling
	maxAbs := 0.0
	for _, v := range diff {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	for _, i := range analysis.DecimateIndices(len(diff), width) {
		result.WriteString(getDiffSymbol(diff[i], maxAbs))
	}

	// Legend
	result.WriteString("\n\nLegend: ")
	result.WriteString(pterm.FgBlue.Sprint("▼") + " Large Decrease  ")
	result.WriteString(pterm.FgCyan.Sprint("▽") + " Small Decrease  ")
	result.WriteString(pterm.FgGray.Sprint("·") + " No Change  ")
	result.WriteString(pterm.FgYellow.Sprint("△") + " Small Increase  ")
	result.WriteString(pterm.FgRed.Sprint("▲") + " Large Increase")

	return result.String()
}

func getDiffSymbol(val, maxAbs float64) string {
	if val == 0 || maxAbs == 0 {
		return pterm.FgGray.Sprint("·")
	}

	normalized := val / maxAbs

	if normalized < -0.5 {
		return pterm.FgBlue.Sprint("▼")
	} else if normalized < -0.1 {
		return pterm.FgCyan.Sprint("▽")
	} else if normalized > 0.5 {
		return pterm.FgRed.Sprint("▲")
	} else if normalized > 0.1 {
		return pterm.FgYellow.Sprint("△")
	}

	return pterm.FgGray.Sprint("·")
}

func displayName(f *models.File) string {
	if f.Path == "" {
		return "<stream>"
	}
	return filepath.Base(f.Path)
}
