package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DefaultLabel = "Default"

var ErrNoConfig = errors.New("no config selected")

// Store manages labeled YAML profiles under one root:
//
//	<root>/configs/<label>.yaml
//	<root>/current_config
type Store struct {
	Root string
}

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "pagetidy")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagetidy")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pagetidy")
}

func DefaultStore() *Store {
	return &Store{Root: ConfigRoot()}
}

func (s *Store) ConfigsDir() string {
	return filepath.Join(s.Root, "configs")
}

func (s *Store) currentLabelFile() string {
	return filepath.Join(s.Root, "current_config")
}

func (s *Store) pathFor(label string) string {
	return filepath.Join(s.ConfigsDir(), label+".yaml")
}

func (s *Store) ensureDirs() error {
	return os.MkdirAll(s.ConfigsDir(), 0755)
}

func checkLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}

	return nil
}

func (s *Store) PathByLabel(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}

	path := s.pathFor(label)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("config %q does not exist", label)
	}

	return path, nil
}

func (s *Store) CurrentLabel() (string, error) {
	b, err := os.ReadFile(s.currentLabelFile())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}

	return label, nil
}

func (s *Store) ActivePath() (string, error) {
	label, err := s.CurrentLabel()
	if err != nil {
		return "", err
	}

	return s.pathFor(label), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func (s *Store) List() ([]ConfigInfo, error) {
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := s.CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(s.ConfigsDir(), name),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) Switch(label string) error {
	if _, err := s.PathByLabel(label); err != nil {
		return err
	}

	return os.WriteFile(s.currentLabelFile(), []byte(label), 0644)
}

// Create writes a profile with default values and returns its path.
func (s *Store) Create(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if err := s.ensureDirs(); err != nil {
		return "", err
	}

	path := s.pathFor(label)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}

// InitDefault creates the Default profile if needed and activates it.
// It returns os.ErrExist alongside the path when the profile was there.
func (s *Store) InitDefault() (string, error) {
	path, err := s.Create(DefaultLabel)
	if err != nil {
		if _, statErr := os.Stat(s.pathFor(DefaultLabel)); statErr != nil {
			return "", err
		}
		path = s.pathFor(DefaultLabel)
		if swErr := s.Switch(DefaultLabel); swErr != nil {
			return "", swErr
		}
		return path, os.ErrExist
	}

	return path, s.Switch(DefaultLabel)
}

func (s *Store) Rename(oldLabel, newLabel string) error {
	if err := checkLabel(newLabel); err != nil {
		return err
	}

	oldPath, err := s.PathByLabel(oldLabel)
	if err != nil {
		return err
	}

	newPath := s.pathFor(newLabel)
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := s.CurrentLabel(); active == oldLabel {
		return os.WriteFile(s.currentLabelFile(), []byte(newLabel), 0644)
	}

	return nil
}

// Remove deletes a profile. Removing the active one falls back to
// Default; Default itself cannot be removed.
func (s *Store) Remove(label string) (fellBack bool, err error) {
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}

	path, err := s.PathByLabel(label)
	if err != nil {
		return false, err
	}

	if active, _ := s.CurrentLabel(); active == label {
		if err := s.Switch(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		fellBack = true
	}

	return fellBack, os.Remove(path)
}

// Reset overwrites the active profile with default values.
func (s *Store) Reset() (string, error) {
	path, err := s.ActivePath()
	if err != nil {
		return "", err
	}

	return path, SaveYAML(DefaultConfig(), path)
}

// Load reads a profile, filling unset fields with defaults.
func (s *Store) Load(label string) (*Config, error) {
	path, err := s.PathByLabel(label)
	if err != nil {
		return nil, err
	}

	return loadYAML(path)
}

func ActiveConfigPath() (string, error) {
	return DefaultStore().ActivePath()
}
