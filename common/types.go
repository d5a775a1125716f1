// package common contains plain data types and math helpers shared across the engine packages.
package common

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA pixel data, 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// ImportedTexture is image data referenced by a model file or the render config.
// Either Data (embedded bytes) or Path (file on disk) is set.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g. "diffuse").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string
}

// Decode decodes the texture to RGBA staging data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
//
// Returns:
//   - TextureStagingData: the decoded pixels and dimensions
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() (TextureStagingData, error) {
	if t == nil {
		return TextureStagingData{}, errors.New("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return TextureStagingData{}, errors.Wrapf(err, "decode embedded image %q", t.Name)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return TextureStagingData{}, errors.Wrapf(fileErr, "open texture file %s", t.Path)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return TextureStagingData{}, errors.Wrapf(err, "decode texture file %s", t.Path)
		}
	default:
		return TextureStagingData{}, errors.New("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
