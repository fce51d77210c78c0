package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quantmind-br/reqscan/internal/domain"
)

// FileLoader reads manifests from the local filesystem. Relative paths are
// taken relative to Root.
type FileLoader struct {
	Root string
}

// NewFileLoader creates a FileLoader rooted at root ("" means the working directory)
func NewFileLoader(root string) *FileLoader {
	return &FileLoader{Root: root}
}

// Load reads and decodes the file at path
func (l *FileLoader) Load(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.FromSlash(path)
	if !filepath.IsAbs(full) && l.Root != "" {
		full = filepath.Join(l.Root, full)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, full)
		}
		return "", fmt.Errorf("failed to read manifest file: %w", err)
	}

	return DecodeText(data)
}
