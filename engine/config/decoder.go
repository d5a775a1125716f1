package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format names a configuration encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Decoder is the part of the TOML and YAML decoders Load uses.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

var decoders = map[Format]DecoderFunc{
	FormatTOML: func(r io.Reader) Decoder {
		d := toml.NewDecoder(r)
		d.DisallowUnknownFields()
		return d
	},
	FormatYAML: func(r io.Reader) Decoder {
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		return d
	},
}

// FormatOf returns the format implied by the file extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.Errorf("config: unsupported file extension %q", filepath.Ext(path))
}

// Load reads the configuration at path, picking the decoder from its extension.
// Fields the file omits keep their Default values; the result is normalized.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - RenderConfig: the loaded configuration
//   - error: an error if the file cannot be read or decoded
func Load(path string) (RenderConfig, error) {
	format, err := FormatOf(path)
	if err != nil {
		return RenderConfig{}, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return RenderConfig{}, errors.Wrap(err, "config")
	}
	defer fp.Close()

	cfg, err := Read(bufio.NewReader(fp), format)
	if err != nil {
		return RenderConfig{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Read decodes a configuration of the given format from r on top of Default. A file
// that declares no meshes and no lights gets the default scene; otherwise its scene
// replaces the default one entirely.
//
// Parameters:
//   - r: the encoded configuration
//   - format: FormatTOML or FormatYAML
//
// Returns:
//   - RenderConfig: the decoded, normalized configuration
//   - error: an error if the format is unknown or decoding fails
func Read(r io.Reader, format Format) (RenderConfig, error) {
	newDecoder, ok := decoders[format]
	if !ok {
		return RenderConfig{}, errors.Errorf("config: unknown format %q", format)
	}
	cfg := Default()
	cfg.Scene = SceneConfig{}
	if err := newDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return RenderConfig{}, errors.Wrapf(err, "decode %s", format)
	}
	if cfg.Scene.empty() {
		cfg.Scene = Default().Scene
	}
	cfg.Normalize()
	return cfg, nil
}
