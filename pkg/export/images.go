package export

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	// Evidence uploads arrive as webp; register the decoder.
	_ "golang.org/x/image/webp"
)

// CompressImage re-encodes an uploaded evidence image as JPEG, scaling it
// down to maxWidth when wider. Aspect ratio is preserved.
func CompressImage(data []byte, maxWidth, quality int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = 600
	}
	if quality <= 0 || quality > 100 {
		quality = 70
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
