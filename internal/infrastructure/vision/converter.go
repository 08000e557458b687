package vision

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"classifier-bot/internal/domain/entity"
	"classifier-bot/internal/domain/port"
)

// Converter выпрямляет снимок, обрезает его по центру под пропорции входа
// модели и масштабирует в тензор CHW.
type Converter struct {
	interp resize.InterpolationFunction
}

// NewConverter создаёт конвертер с интерполяцией Lanczos3.
func NewConverter() *Converter {
	return &Converter{interp: resize.Lanczos3}
}

// Convert implements port.ImageConverter.
func (c *Converter) Convert(img entity.InputImage, width, height int) (*entity.PixelBuffer, error) {
	if img.Image == nil {
		return nil, errors.New("no image")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if b := img.Image.Bounds(); b.Empty() {
		return nil, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}

	upright := Upright(img.Image, img.Orientation)
	cropped := CenterCrop(upright, width, height)
	scaled := resize.Resize(uint(width), uint(height), cropped, c.interp)

	return toPixelBuffer(scaled, width, height), nil
}

// Upright применяет тег ориентации EXIF к пикселям.
func Upright(img image.Image, o entity.Orientation) image.Image {
	switch o {
	case entity.OrientationUpMirrored:
		return imaging.FlipH(img)
	case entity.OrientationDown:
		return imaging.Rotate180(img)
	case entity.OrientationDownMirrored:
		return imaging.FlipV(img)
	case entity.OrientationLeftMirrored:
		return imaging.Transpose(img)
	case entity.OrientationRight:
		return imaging.Rotate270(img)
	case entity.OrientationRightMirrored:
		return imaging.Transverse(img)
	case entity.OrientationLeft:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// CenterCrop вырезает из центра наибольшую область с пропорциями width:height.
func CenterCrop(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	cropW, cropH := srcW, srcW*height/width
	if cropH > srcH {
		cropH = srcH
		cropW = srcH * width / height
	}
	cropW = maxInt(cropW, 1)
	cropH = maxInt(cropH, 1)

	if cropW == srcW && cropH == srcH {
		return img
	}
	return imaging.CropCenter(img, cropW, cropH)
}

func toPixelBuffer(img image.Image, width, height int) *entity.PixelBuffer {
	buf := entity.NewPixelBuffer(width, height)
	b := img.Bounds()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			buf.Set(x, y, float32(r)/65535.0, float32(g)/65535.0, float32(bl)/65535.0)
		}
	}
	return buf
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Проверка реализации интерфейса
var _ port.ImageConverter = (*Converter)(nil)
