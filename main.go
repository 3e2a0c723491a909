// rigol-bin - inspect, plot, export and compare Rigol oscilloscope .bin captures
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tosih/rigol-bin-tool/pkg/config"
	"github.com/tosih/rigol-bin-tool/pkg/logging"
	"github.com/tosih/rigol-bin-tool/pkg/models"
	"github.com/tosih/rigol-bin-tool/pkg/reader"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
	rd  *reader.Reader
)

var rootCmd = &cobra.Command{
	Use:   "rigol-bin",
	Short: "Inspect Rigol oscilloscope .bin waveform captures",
	Long: `rigol-bin decodes the binary waveform files saved by Rigol oscilloscopes.

Commands:
  info      Show file and waveform headers
  samples   Show decoded sample values
  plot      Draw an ASCII trace of a waveform
  stats     Show sample statistics and an optional spectrum
  hex       Dump the raw sample bytes
  export    Write waveforms to CSV or JSON
  compare   Diff the samples of two captures
  scan      Search a damaged capture for waveform headers
  serve     Browse captures in a web viewer`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
}

// setup loads the config, applies flag overrides and builds the decoder.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	rd = reader.New(
		reader.WithLogger(logger),
		reader.WithMaxBufferSize(cfg.Decode.MaxBufferBytes),
	)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

// loadFile decodes path with the configured reader.
func loadFile(path string) (*models.File, error) {
	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Decoding %s...", path))
	f, err := rd.ReadFile(path)
	if err != nil {
		spinner.Fail(fmt.Sprintf("Failed to decode %s", path))
		return nil, err
	}
	spinner.Success(fmt.Sprintf("Decoded %d waveform(s)", len(f.Waveforms)))
	return f, nil
}

// selectWaveforms returns the waveform at index, or all of them when index
// is negative.
func selectWaveforms(f *models.File, index int) ([]*models.Waveform, error) {
	if index >= len(f.Waveforms) {
		return nil, fmt.Errorf("waveform %d out of range, file has %d", index, len(f.Waveforms))
	}
	if index >= 0 {
		return []*models.Waveform{&f.Waveforms[index]}, nil
	}
	out := make([]*models.Waveform, len(f.Waveforms))
	for i := range f.Waveforms {
		out[i] = &f.Waveforms[i]
	}
	return out, nil
}
