package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for data that is not a png, jpeg or gif image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Sniff reports the format of an encoded image without decoding the pixels.
func Sniff(r io.Reader) (string, error) {
	_, format, err := image.DecodeConfig(r)
	if err != nil {
		return "", ErrUnsupportedFormat
	}
	switch format {
	case "png", "jpeg", "gif":
		return format, nil
	}
	return "", ErrUnsupportedFormat
}

// Extension returns the file extension images of format are stored under.
func Extension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "jpeg":
		return ".jpg"
	case "gif":
		return ".gif"
	}
	return ""
}

// Reencode decodes data and encodes it again in the same format, so that
// only pixel data survives. It returns the new bytes and the format.
func Reencode(data []byte) ([]byte, string, error) {
	format, err := Sniff(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if format == "gif" {
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, "", ErrUnsupportedFormat
		}
		if err := gif.EncodeAll(&buf, g); err != nil {
			return nil, "", fmt.Errorf("encode gif: %w", err)
		}
		return buf.Bytes(), format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", ErrUnsupportedFormat
	}
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), format, nil
}

// FitWithin scales (w, h) down to fit inside (maxW, maxH) keeping the aspect
// ratio. Sizes that already fit are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	return max(nw, 1), max(nh, 1)
}

// Thumbnail rewrites the image at path so that it fits inside a maxSize x maxSize box.
func Thumbnail(path string, maxSize int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := FitWithin(bounds.Dx(), bounds.Dy(), maxSize, maxSize)
	if w == bounds.Dx() && h == bounds.Dy() {
		return nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		return ErrUnsupportedFormat
	}
	if err != nil {
		return fmt.Errorf("encode %s thumbnail: %w", format, err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
