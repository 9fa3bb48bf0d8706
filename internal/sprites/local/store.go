// Package local reads sprite art from a directory on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the local sprite directory.
type Config struct {
	// BaseDir holds large/, small/ and the notfound_* files.
	BaseDir string
}

// Store reads sprite files below a base directory.
type Store struct {
	baseDir string
}

// New creates a local sprite store. The directory must already exist.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, errors.New("sprites directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("stat sprites directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sprites path %q is not a directory", cfg.BaseDir)
	}
	base, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve sprites directory: %w", err)
	}
	return &Store{baseDir: base}, nil
}

// Read returns the contents of the file stored under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is confined to baseDir by resolve.
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read sprite file: %w", err)
	}
	return data, nil
}

// Walk calls fn with the key of every sprite file below the base directory.
func (s *Store) Walk(fn func(key string) error) error {
	return filepath.WalkDir(s.baseDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			return fmt.Errorf("relative sprite path: %w", err)
		}
		return fn(filepath.ToSlash(rel))
	})
}

func (s *Store) resolve(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("key is required")
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	// The key must name a file strictly below baseDir.
	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the sprites directory", key)
	}
	return full, nil
}
