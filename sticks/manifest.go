package sticks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gimbal-ghost/gimbal-ghost/types"
	"gopkg.in/yaml.v3"
)

// Placeholders substituted in FileNameFormat with grid coordinates
const (
	PlaceholderX = "<x>"
	PlaceholderY = "<y>"
)

// AxisRange describes the evenly spaced sprite coordinates of one axis
type AxisRange struct {
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Increment float64 `yaml:"increment"`
}

// Frames describes where the pre-rendered sprites live and how they are named
type Frames struct {
	Location       string    `yaml:"location"`
	FileNameFormat string    `yaml:"fileNameFormat"`
	X              AxisRange `yaml:"x"`
	Y              AxisRange `yaml:"y"`
}

// StickManifest is the sprite pack description loaded from disk
type StickManifest struct {
	Name   string `yaml:"name"`
	Frames Frames `yaml:"frames"`

	// Directory is the absolute sprite directory, resolved against the manifest location
	Directory string `yaml:"-"`
}

// IsManifestFile checks the manifest extension against the supported structured formats
func IsManifestFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadManifest reads and validates a stick manifest. JSON manifests are decoded by the
// YAML decoder, which accepts them as a subset. Unknown fields are rejected.
func LoadManifest(path string) (*StickManifest, error) {
	if !IsManifestFile(path) {
		return nil, &types.ConfigurationError{
			Path:   path,
			Reason: "stick manifest must end in .json, .yaml or .yml",
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigurationError{Path: path, Reason: "failed to read stick manifest", Err: err}
	}

	var manifest StickManifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("manifest is empty")
		}
		return nil, &types.ConfigurationError{Path: path, Reason: "failed to parse stick manifest", Err: err}
	}

	if err := manifest.Validate(); err != nil {
		return nil, &types.ConfigurationError{Path: path, Reason: "invalid stick manifest", Err: err}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &types.ConfigurationError{Path: path, Reason: "failed to resolve manifest path", Err: err}
	}
	manifest.Directory = manifest.Frames.Location
	if !filepath.IsAbs(manifest.Directory) {
		manifest.Directory = filepath.Join(filepath.Dir(absPath), manifest.Frames.Location)
	}

	return &manifest, nil
}

// Validate checks the manifest shape
func (m *StickManifest) Validate() error {
	if m.Frames.Location == "" {
		return fmt.Errorf("frames.location is required")
	}
	format := m.Frames.FileNameFormat
	if !strings.Contains(format, PlaceholderX) || !strings.Contains(format, PlaceholderY) {
		return fmt.Errorf("frames.fileNameFormat %q must contain %s and %s", format, PlaceholderX, PlaceholderY)
	}
	if err := m.Frames.X.validate("x"); err != nil {
		return err
	}
	return m.Frames.Y.validate("y")
}

func (a AxisRange) validate(axis string) error {
	if a.Increment <= 0 {
		return fmt.Errorf("frames.%s.increment must be greater than 0, got %v", axis, a.Increment)
	}
	if a.Min >= a.Max {
		return fmt.Errorf("frames.%s.min (%v) must be less than max (%v)", axis, a.Min, a.Max)
	}
	return nil
}

// FramePath builds the absolute sprite path for a grid coordinate
func (m *StickManifest) FramePath(x, y float64) string {
	name := strings.Replace(m.Frames.FileNameFormat, PlaceholderX, formatCoordinate(x), 1)
	name = strings.Replace(name, PlaceholderY, formatCoordinate(y), 1)
	return filepath.Join(m.Directory, name)
}
