package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
)

// maxImageDimension bounds the longest side after a downscale pass.
const maxImageDimension = 1600

// downscaleQuality is the JPEG re-encode quality used for downscaled
// output; the source format is not preserved, since WhatsApp photos are
// near-universally JPEG and re-encoding avoids needing a PNG encoder
// tuned for photographic content.
const downscaleQuality = 82

// DownscaleImage shrinks an image above imageDownscaleThresholdBytes so its
// longest side is at most maxImageDimension, re-encoding as JPEG. Images
// under the threshold pass through unchanged. EXIF orientation is neither
// read nor applied here; Orientation reads the tag separately.
func DownscaleImage(data []byte) ([]byte, error) {
	if len(data) <= imageDownscaleThresholdBytes {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxImageDimension {
		return data, nil
	}

	scale := float64(maxImageDimension) / float64(longest)
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)

	resized := nearestNeighborResize(src, newWidth, newHeight)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, resized, &jpeg.Options{Quality: downscaleQuality}); err != nil {
		return nil, fmt.Errorf("encode downscaled image: %w", err)
	}
	return out.Bytes(), nil
}

// nearestNeighborResize is a minimal resampler; no image-resizing library
// sits in the dependency graph this module was grounded on (see
// DESIGN.md), so a direct nearest-neighbor implementation stands in.
func nearestNeighborResize(src image.Image, width, height int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + y*srcH/height
		for x := 0; x < width; x++ {
			srcX := bounds.Min.X + x*srcW/width
			dst.Set(x, y, src.At(srcX, srcY))
		}
	}
	return dst
}

// Orientation reads the EXIF orientation tag (1-8) of a JPEG payload,
// defaulting to 1 (no rotation) when absent or unparsable.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}
