package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrFileTooLarge = errors.New("file exceeds the upload size limit")

// LocalSource reads member spreadsheets from disk for the CLI and writes
// the downloadable template back.
type LocalSource struct {
	BaseDir  string
	MaxBytes int64
}

func NewLocalSource(baseDir string, maxBytes int64) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir, MaxBytes: maxBytes}
}

// Read returns the file's base name and content. Files over MaxBytes are
// rejected before they reach the parser.
func (s *LocalSource) Read(ctx context.Context, sourcePath string) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	path := s.resolve(sourcePath)
	file, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if s.MaxBytes > 0 {
		reader = io.LimitReader(file, s.MaxBytes+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("read file %s: %w", path, err)
	}
	if s.MaxBytes > 0 && int64(len(content)) > s.MaxBytes {
		return "", nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, path, s.MaxBytes)
	}

	return filepath.Base(path), content, nil
}

func (s *LocalSource) Write(ctx context.Context, targetPath string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.resolve(targetPath)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}
	return path, nil
}

func (s *LocalSource) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}
