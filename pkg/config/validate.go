package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("log.level %q: want trace, debug, info, warn, error or off", cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", cfg.Log.Format)
	}

	if cfg.Decode.MaxBufferBytes == 0 {
		return fmt.Errorf("decode.max_buffer_bytes must be positive")
	}

	if cfg.Display.SampleLimit < 0 {
		return fmt.Errorf("display.sample_limit must not be negative")
	}
	if cfg.Display.PlotWidth < 10 || cfg.Display.PlotHeight < 4 {
		return fmt.Errorf(
			"display plot size %dx%d is too small (minimum 10x4)",
			cfg.Display.PlotWidth,
			cfg.Display.PlotHeight,
		)
	}
	if cfg.Display.HexLimit < 0 {
		return fmt.Errorf("display.hex_limit must not be negative")
	}

	switch cfg.Export.Format {
	case "csv", "json":
	default:
		return fmt.Errorf("export.format %q: want csv or json", cfg.Export.Format)
	}
	if cfg.Export.Dir == "" {
		return fmt.Errorf("export.dir must be set")
	}

	if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", cfg.Web.Port)
	}
	if cfg.Web.MaxPoints < 2 {
		return fmt.Errorf("web.max_points must be at least 2")
	}

	return nil
}
