package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"classifier-bot/internal/domain/entity"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

// stripe строит картинку из вертикальных полос заданных цветов.
func stripe(colors ...color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, len(colors), 1))
	for x, c := range colors {
		img.SetNRGBA(x, 0, c)
	}
	return img
}

func TestCenterCrop_KeepsMiddle(t *testing.T) {
	cropped := CenterCrop(stripe(red, green, blue), 1, 1)
	require.Equal(t, 1, cropped.Bounds().Dx())
	require.Equal(t, 1, cropped.Bounds().Dy())

	r, g, b, _ := cropped.At(cropped.Bounds().Min.X, cropped.Bounds().Min.Y).RGBA()
	require.Equal(t, []uint32{0, 0xffff, 0}, []uint32{r, g, b})
}

func TestCenterCrop_Geometry(t *testing.T) {
	cases := []struct {
		name         string
		srcW, srcH   int
		dstW, dstH   int
		wantW, wantH int
	}{
		{"landscape to square", 100, 50, 224, 224, 50, 50},
		{"portrait to square", 40, 120, 224, 224, 40, 40},
		{"square to wide", 60, 60, 4, 2, 60, 30},
		{"already fits", 30, 20, 3, 2, 30, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := image.NewNRGBA(image.Rect(0, 0, tc.srcW, tc.srcH))
			out := CenterCrop(img, tc.dstW, tc.dstH)
			require.Equal(t, tc.wantW, out.Bounds().Dx())
			require.Equal(t, tc.wantH, out.Bounds().Dy())
		})
	}
}

func TestUpright(t *testing.T) {
	src := stripe(red, blue)

	flipped := Upright(src, entity.OrientationUpMirrored)
	require.Equal(t, blue, flipped.(*image.NRGBA).NRGBAAt(0, 0))

	rotated := Upright(src, entity.OrientationRight)
	require.Equal(t, 1, rotated.Bounds().Dx())
	require.Equal(t, 2, rotated.Bounds().Dy())

	require.Same(t, src, Upright(src, entity.OrientationUp).(*image.NRGBA))
}

func TestConverter_Convert(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			img.SetNRGBA(x, y, green)
		}
	}

	buf, err := NewConverter().Convert(entity.NewInputImage(img, entity.OrientationRight), 4, 4)
	require.NoError(t, err)
	require.Equal(t, 4, buf.Width)
	require.Equal(t, 4, buf.Height)
	require.Len(t, buf.Data, 3*4*4)

	r, g, b := buf.At(2, 2)
	require.InDelta(t, 0, r, 0.01)
	require.InDelta(t, 1, g, 0.01)
	require.InDelta(t, 0, b, 0.01)
}

func TestConverter_Errors(t *testing.T) {
	c := NewConverter()

	_, err := c.Convert(entity.InputImage{}, 4, 4)
	require.Error(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	_, err = c.Convert(entity.NewInputImage(img, entity.OrientationUp), 0, 4)
	require.Error(t, err)

	_, err = c.Convert(entity.NewInputImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)), entity.OrientationUp), 4, 4)
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stripe(red, green)))

	in, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, entity.OrientationUp, in.Orientation)
	require.Equal(t, 2, in.Image.Bounds().Dx())

	_, err = Decode([]byte("not an image"))
	require.ErrorIs(t, err, ErrDecode)

	_, err = Decode(nil)
	require.ErrorIs(t, err, ErrDecode)
}
