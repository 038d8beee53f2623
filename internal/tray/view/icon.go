package view

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	ico "github.com/sergeymakinen/go-ico"
)

// IconSize is the edge length of the generated tray icon in pixels.
const IconSize = 64

var (
	discColor   = color.RGBA{R: 0x19, G: 0x76, B: 0xD2, A: 0xFF}
	shadowColor = color.RGBA{R: 0x11, G: 0x52, B: 0x93, A: 0xFF}
	stripeColor = []color.RGBA{
		{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF},
		{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF},
	}
)

// Icon draws the tray glyph: a blue disc with a drop shadow and three light
// stripes standing for taskbar rows.
func Icon(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	margin := size / 16
	r := float64(size-2*margin) / 2
	c := float64(size) / 2
	shadow := float64(size) / 64

	fillDisc(img, c+shadow, c+shadow, r, shadowColor)
	fillDisc(img, c, c, r, discColor)

	barMargin := size * 35 / 128
	barHeight := size * 12 / 128
	spacing := size * 16 / 128
	top := size * 45 / 128
	for i, col := range stripeColor {
		y := top + i*spacing
		rect := image.Rect(barMargin, y, size-barMargin, y+barHeight)
		draw.Draw(img, rect, &image.Uniform{C: col}, image.Point{}, draw.Src)
	}
	return img
}

func fillDisc(img *image.RGBA, cx, cy, r float64, col color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// IconICO returns the icon encoded as a Windows .ico file, the format the
// tray expects.
func IconICO() ([]byte, error) {
	var buf bytes.Buffer
	if err := ico.Encode(&buf, Icon(IconSize)); err != nil {
		return nil, fmt.Errorf("encoding tray icon: %w", err)
	}
	return buf.Bytes(), nil
}
