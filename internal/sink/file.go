package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/ilyasfoo/lockdown/internal/config"
)

type fileSink struct {
	dir string
}

// NewFile writes every document to <dir>/<name>.json.
func NewFile(cfg config.FileSinkConfig) (Sink, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &fileSink{dir: cfg.Dir}, nil
}

func (f *fileSink) Name() string { return "file" }

func (f *fileSink) Path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return filepath.Join(f.dir, clean+".json"), nil
}

// Write replaces the file atomically so readers never see a half-written document.
func (f *fileSink) Write(ctx context.Context, name string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, doc, 0o644)
}

func (f *fileSink) Close() error { return nil }
