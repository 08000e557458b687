package entity

import (
	"fmt"
	"image"
)

// Orientation — тег ориентации снимка в нумерации EXIF (1..8).
type Orientation uint8

const (
	OrientationUp            Orientation = 1 // без поворота
	OrientationUpMirrored    Orientation = 2 // отражение по горизонтали
	OrientationDown          Orientation = 3 // поворот на 180°
	OrientationDownMirrored  Orientation = 4 // отражение по вертикали
	OrientationLeftMirrored  Orientation = 5 // транспонирование
	OrientationRight         Orientation = 6 // повернуть на 90° по часовой, чтобы выпрямить
	OrientationRightMirrored Orientation = 7 // транспонирование по побочной диагонали
	OrientationLeft          Orientation = 8 // повернуть на 90° против часовой, чтобы выпрямить
)

// Valid сообщает, что значение входит в диапазон EXIF.
func (o Orientation) Valid() bool {
	return o >= OrientationUp && o <= OrientationLeft
}

// SwapsAxes сообщает, что выпрямление меняет местами ширину и высоту.
func (o Orientation) SwapsAxes() bool {
	return o >= OrientationLeftMirrored && o <= OrientationLeft
}

func (o Orientation) String() string {
	switch o {
	case OrientationUp:
		return "up"
	case OrientationUpMirrored:
		return "up-mirrored"
	case OrientationDown:
		return "down"
	case OrientationDownMirrored:
		return "down-mirrored"
	case OrientationLeftMirrored:
		return "left-mirrored"
	case OrientationRight:
		return "right"
	case OrientationRightMirrored:
		return "right-mirrored"
	case OrientationLeft:
		return "left"
	default:
		return fmt.Sprintf("orientation(%d)", uint8(o))
	}
}

// InputImage — снимок, выбранный пользователем. Живёт до передачи в конвейер.
type InputImage struct {
	Image       image.Image
	Orientation Orientation
}

// NewInputImage создаёт снимок; неизвестная ориентация считается OrientationUp.
func NewInputImage(img image.Image, orientation Orientation) InputImage {
	if !orientation.Valid() {
		orientation = OrientationUp
	}
	return InputImage{Image: img, Orientation: orientation}
}

// PixelBuffer — тензор CHW (3 канала, float32 в [0,1]) размера входа модели.
type PixelBuffer struct {
	Width  int
	Height int
	Data   []float32
}

// Channels — число каналов в буфере.
const Channels = 3

// NewPixelBuffer выделяет пустой буфер заданного размера.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Data:   make([]float32, Channels*width*height),
	}
}

// Set записывает пиксель (x, y) в плоскости каналов.
func (b *PixelBuffer) Set(x, y int, r, g, bl float32) {
	plane := b.Width * b.Height
	i := y*b.Width + x
	b.Data[i] = r
	b.Data[plane+i] = g
	b.Data[2*plane+i] = bl
}

// At возвращает пиксель (x, y).
func (b *PixelBuffer) At(x, y int) (r, g, bl float32) {
	plane := b.Width * b.Height
	i := y*b.Width + x
	return b.Data[i], b.Data[plane+i], b.Data[2*plane+i]
}
