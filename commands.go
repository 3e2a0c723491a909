package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tosih/rigol-bin-tool/pkg/analysis"
	"github.com/tosih/rigol-bin-tool/pkg/compare"
	"github.com/tosih/rigol-bin-tool/pkg/export"
	"github.com/tosih/rigol-bin-tool/pkg/renderer"
	"github.com/tosih/rigol-bin-tool/pkg/scanner"
	"github.com/tosih/rigol-bin-tool/pkg/web"
)

var (
	waveformIndex int
	sampleLimit   int
	plotWidth     int
	plotHeight    int
	showSpectrum  bool
	hexLimit      int
	exportDir     string
	exportFormat  string
	servePort     int
	noBrowser     bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file.bin>",
	Short: "Show file and waveform headers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		renderer.RenderFile(f)
		if !cmd.Flags().Changed("waveform") {
			return nil
		}
		wfs, err := selectWaveforms(f, waveformIndex)
		if err != nil {
			return err
		}
		for _, w := range wfs {
			renderer.RenderWaveform(w)
		}
		return nil
	},
}

var samplesCmd = &cobra.Command{
	Use:   "samples <file.bin>",
	Short: "Show decoded sample values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("limit") {
			sampleLimit = cfg.Display.SampleLimit
		}
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		wfs, err := selectWaveforms(f, waveformIndex)
		if err != nil {
			return err
		}
		for _, w := range wfs {
			renderer.RenderSamples(w, sampleLimit)
		}
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot <file.bin>",
	Short: "Draw an ASCII trace of a waveform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("width") {
			plotWidth = cfg.Display.PlotWidth
		}
		if !cmd.Flags().Changed("height") {
			plotHeight = cfg.Display.PlotHeight
		}
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		wfs, err := selectWaveforms(f, waveformIndex)
		if err != nil {
			return err
		}
		for _, w := range wfs {
			renderer.RenderPlot(w, plotWidth, plotHeight)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <file.bin>",
	Short: "Show sample statistics and an optional spectrum",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		wfs, err := selectWaveforms(f, waveformIndex)
		if err != nil {
			return err
		}
		for _, w := range wfs {
			values := w.Buffer.Values()
			var bins []analysis.Bin
			if showSpectrum {
				bins, err = analysis.Spectrum(values, w.Header.XIncrement)
				if err != nil {
					pterm.Warning.Printf("%s: no spectrum: %v\n", w.Label(), err)
				}
			}
			renderer.RenderStats(w, analysis.Summarize(values), bins)
		}
		return nil
	},
}

var hexCmd = &cobra.Command{
	Use:   "hex <file.bin>",
	Short: "Dump the raw sample bytes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("limit") {
			hexLimit = cfg.Display.HexLimit
		}
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		wfs, err := selectWaveforms(f, waveformIndex)
		if err != nil {
			return err
		}
		for _, w := range wfs {
			renderer.RenderHexDump(w, hexLimit)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.bin>",
	Short: "Write waveforms to CSV or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("output") {
			exportDir = cfg.Export.Dir
		}
		if !cmd.Flags().Changed("format") {
			exportFormat = cfg.Export.Format
		}
		f, err := loadFile(args[0])
		if err != nil {
			return err
		}
		return export.Export(f, exportDir, exportFormat)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <a.bin> <b.bin>",
	Short: "Diff the samples of two captures",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadFile(args[0])
		if err != nil {
			return err
		}
		b, err := loadFile(args[1])
		if err != nil {
			return err
		}
		compare.CompareFiles(a, b)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <file.bin>",
	Short: "Search a damaged capture for waveform headers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanner.ScanForWaveforms(args[0])
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve [dir|file.bin]",
	Short: "Browse captures in a web viewer",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("port") {
			servePort = cfg.Web.Port
		}
		target := "."
		if len(args) == 1 {
			target = args[0]
		}
		s := web.NewServer(target, web.Options{
			Port:        servePort,
			MaxPoints:   cfg.Web.MaxPoints,
			OpenBrowser: cfg.Web.OpenBrowser && !noBrowser,
			Reader:      rd,
		})
		return s.Start(cmd.Context())
	},
}

func init() {
	for _, c := range []*cobra.Command{infoCmd, samplesCmd, plotCmd, statsCmd, hexCmd} {
		c.Flags().IntVarP(&waveformIndex, "waveform", "w", -1, "waveform index (default all)")
	}
	samplesCmd.Flags().IntVarP(&sampleLimit, "limit", "l", 20, "number of samples to show")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width in characters")
	plotCmd.Flags().IntVar(&plotHeight, "height", 20, "plot height in lines")
	statsCmd.Flags().BoolVar(&showSpectrum, "spectrum", false, "include the FFT magnitude peak")
	hexCmd.Flags().IntVarP(&hexLimit, "limit", "l", 256, "bytes to dump per waveform")
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", "export", "output directory")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv, json)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "HTTP port")
	serveCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "do not open a browser")

	rootCmd.AddCommand(infoCmd, samplesCmd, plotCmd, statsCmd, hexCmd, exportCmd, compareCmd, scanCmd, serveCmd)
}
