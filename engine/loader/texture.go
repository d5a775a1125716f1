package loader

import (
	"github.com/Carmen-Shannon/meshtree/common"
)

// LoadTexture decodes a PNG or JPEG file into RGBA staging data.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - common.TextureStagingData: the decoded pixels
//   - error: error if the file cannot be read or decoded
func LoadTexture(path string) (common.TextureStagingData, error) {
	t := &common.ImportedTexture{Name: path, Path: path}
	return t.Decode()
}
