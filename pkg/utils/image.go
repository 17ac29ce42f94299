package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format (jpeg/png/webp)")

// NormalizeToJPG decodes a jpeg, png or webp photo, applies its EXIF
// orientation, shrinks it to maxWidth when wider and re-encodes as JPEG.
func NormalizeToJPG(input []byte, maxWidth int, quality int) ([]byte, error) {
	if len(input) == 0 {
		return nil, errors.New("empty image")
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}

	img, err := decodePhoto(input)
	if err != nil {
		return nil, err
	}
	img = orient(img, exifOrientation(input))
	if maxWidth > 0 {
		img = fitWidth(img, maxWidth)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodePhoto(input []byte) (image.Image, error) {
	decoders := []func(*bytes.Reader) (image.Image, error){
		func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) },
		func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
	}
	for _, decode := range decoders {
		if img, err := decode(bytes.NewReader(input)); err == nil {
			return img, nil
		}
	}
	return nil, ErrUnsupportedImage
}

func exifOrientation(input []byte) int {
	x, err := exif.Decode(bytes.NewReader(input))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// orient maps EXIF orientation 2..8 onto pixel transforms; anything else is
// returned unchanged.
func orient(src image.Image, o int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	var to func(x, y int) (int, int)
	switch o {
	case 2:
		dst, to = image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return w - 1 - x, y }
	case 3:
		dst, to = image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4:
		dst, to = image.NewRGBA(image.Rect(0, 0, w, h)), func(x, y int) (int, int) { return x, h - 1 - y }
	case 5:
		dst, to = image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return y, x }
	case 6:
		dst, to = image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return h - 1 - y, x }
	case 7:
		dst, to = image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
	case 8:
		dst, to = image.NewRGBA(image.Rect(0, 0, h, w)), func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		return src
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := to(x, y)
			dst.Set(dx, dy, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func fitWidth(src image.Image, maxW int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || w <= maxW {
		return src
	}

	newH := int(math.Round(float64(h) * float64(maxW) / float64(w)))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
