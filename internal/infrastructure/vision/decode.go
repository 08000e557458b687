package vision

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"classifier-bot/internal/domain/entity"
)

// ErrDecode — байты не являются поддерживаемым изображением.
var ErrDecode = errors.New("failed to decode image")

// Decode читает изображение и тег ориентации EXIF. Пиксели не поворачиваются:
// ориентация применяется конвертером.
func Decode(data []byte) (entity.InputImage, error) {
	if len(data) == 0 {
		return entity.InputImage{}, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.InputImage{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return entity.NewInputImage(img, readOrientation(data)), nil
}

// readOrientation возвращает OrientationUp, если EXIF нет или тег битый.
func readOrientation(data []byte) entity.Orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return entity.OrientationUp
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return entity.OrientationUp
	}
	v, err := tag.Int(0)
	if err != nil || v < 0 || v > 255 {
		return entity.OrientationUp
	}

	o := entity.Orientation(v)
	if !o.Valid() {
		return entity.OrientationUp
	}
	return o
}
