package service

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// sheetPNG 白底扫描纸样，rects 为深色版片
func sheetPNG(t *testing.T, w, h int, rects ...image.Rectangle) []byte {
	t.Helper()
	img := solidImage(w, h, color.White)
	for _, r := range rects {
		draw.Draw(img, r, image.NewUniform(color.NRGBA{R: 30, G: 30, B: 40, A: 255}), image.Point{}, draw.Src)
	}
	return encodePNG(t, img)
}

// halfPiece 左半不透明、右半透明的版片图
func halfPiece(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, image.Rect(0, 0, w/2, h), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}
