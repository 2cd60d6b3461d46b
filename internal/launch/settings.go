package launch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the persisted launch state.
type Settings struct {
	FirstTime bool `yaml:"first_time"`
}

// FileSettings stores Settings as YAML at Path. A missing file means
// first run.
type FileSettings struct {
	Path string

	mu sync.Mutex
}

// NewFileSettings creates a settings store at path.
func NewFileSettings(path string) *FileSettings {
	return &FileSettings{Path: path}
}

// Load reads the settings file.
func (f *FileSettings) Load(ctx context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

// FirstTime reports whether the welcome banner should show.
func (f *FileSettings) FirstTime(ctx context.Context) (bool, error) {
	s, err := f.Load(ctx)
	if err != nil {
		return false, err
	}
	return s.FirstTime, nil
}

// ChangeFirstTime implements LaunchAPI.
func (f *FileSettings) ChangeFirstTime(ctx context.Context, firstTime bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.load(ctx)
	if err != nil {
		return err
	}
	s.FirstTime = firstTime
	return f.save(ctx, s)
}

func (f *FileSettings) load(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{FirstTime: true}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read launch settings: %w", err)
	}
	s := Settings{FirstTime: true}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse launch settings %s: %w", f.Path, err)
	}
	return s, nil
}

// save writes through a temp file and rename so a crash never leaves a
// half-written file.
func (f *FileSettings) save(ctx context.Context, s Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode launch settings: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".launch-*.yaml")
	if err != nil {
		return fmt.Errorf("write launch settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write launch settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write launch settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("write launch settings: %w", err)
	}
	return nil
}
