package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved locations of every file a run writes.
type Paths struct {
	WorkingDir string
	OutputDir  string
	LogsDir    string

	// Optional telemetry artifacts, empty when disabled
	MetricsFile string
	TraceFile   string
}

// GetPaths resolves the configured output locations. Relative paths are taken
// relative to the current working directory, where the charts are expected.
func GetPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wd, p)
	}

	paths := &Paths{
		WorkingDir:  wd,
		OutputDir:   resolve(cfg.Output.Dir),
		MetricsFile: resolve(cfg.Telemetry.MetricsFile),
	}
	if cfg.Logging.Output != "console" {
		paths.LogsDir = filepath.Dir(resolve(cfg.Logging.FilePath))
	}
	if cfg.Telemetry.TraceExporter == "file" {
		paths.TraceFile = resolve(cfg.Telemetry.TraceFile)
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.OutputDir}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}
	if p.MetricsFile != "" {
		directories = append(directories, filepath.Dir(p.MetricsFile))
	}
	if p.TraceFile != "" {
		directories = append(directories, filepath.Dir(p.TraceFile))
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// ChartPath returns the output path of a chart artifact
func (p *Paths) ChartPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
