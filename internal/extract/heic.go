package extract

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/heic"
)

// convertHEICToPNG decodes an HEIC/HEIF image to a temporary PNG, since
// tesseract cannot read the format directly. Call cleanup() to remove it.
func convertHEICToPNG(path string) (string, func(), error) {
	in, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer in.Close()

	img, err := heic.Decode(in)
	if err != nil {
		return "", nil, fmt.Errorf("decoding heic: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "rp-heic-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "image.png")
	f, err := os.Create(out)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("encoding png: %w", err)
	}
	return out, cleanup, nil
}
