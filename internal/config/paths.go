package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths resolves every file the pipeline touches against a single base
// directory, so relative entries in config.yaml behave the same no matter
// where the binary is started from.
type Paths struct {
	BaseDir string
}

// NewPaths returns Paths rooted at baseDir. An empty baseDir means the
// current working directory.
func NewPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", baseDir, err)
	}

	return &Paths{BaseDir: abs}, nil
}

// Resolve returns p unchanged when absolute, otherwise joined to BaseDir
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.BaseDir, path)
}

// ResolveConfig rewrites all file locations of cfg to absolute paths.
// The source location is only touched for file sources.
func (p *Paths) ResolveConfig(cfg *Config) {
	if cfg.Source.Kind == "file" {
		cfg.Source.Location = p.Resolve(cfg.Source.Location)
	}
	cfg.Pipeline.RatesPath = p.Resolve(cfg.Pipeline.RatesPath)
	cfg.Pipeline.AuditLogPath = p.Resolve(cfg.Pipeline.AuditLogPath)
	cfg.Output.CSVPath = p.Resolve(cfg.Output.CSVPath)
	cfg.Output.WorkbookPath = p.Resolve(cfg.Output.WorkbookPath)
	cfg.Store.Path = p.Resolve(cfg.Store.Path)
	cfg.Logging.FilePath = p.Resolve(cfg.Logging.FilePath)
}

// EnsureDirectories creates the parent directory of every output file
func (p *Paths) EnsureDirectories(cfg *Config) error {
	files := []string{
		cfg.Pipeline.AuditLogPath,
		cfg.Output.CSVPath,
		cfg.Output.WorkbookPath,
		cfg.Store.Path,
	}

	for _, file := range files {
		if file == "" {
			continue
		}
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
