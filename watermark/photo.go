package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	jpegQuality  = 95
	shadowOffset = 2
)

var (
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	shadowColor = color.NRGBA{A: 150}
)

func stampPhoto(data []byte, text string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := imaging.Clone(img)
	if label := renderLabel(text); label != nil {
		label = fitLabel(label, out.Bounds().Dx())
		b := out.Bounds()
		margin := max(2, b.Dx()/50)
		pos := image.Pt(
			max(0, b.Dx()-label.Bounds().Dx()-margin),
			max(0, b.Dy()-label.Bounds().Dy()-margin),
		)
		out = imaging.Overlay(out, label, pos, 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("watermark: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// renderLabel draws text with its drop shadow on a transparent canvas.
func renderLabel(text string) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		return nil
	}
	m := face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()

	label := image.NewNRGBA(image.Rect(0, 0, width+shadowOffset, height+shadowOffset))
	draw := func(c color.Color, x, y int) {
		d := &font.Drawer{
			Dst:  label,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(x, y+m.Ascent.Ceil()),
		}
		d.DrawString(text)
	}
	draw(shadowColor, shadowOffset, shadowOffset)
	draw(textColor, 0, 0)
	return label
}

// fitLabel scales the label to about a quarter of the image width.
func fitLabel(label *image.NRGBA, imageWidth int) *image.NRGBA {
	target := imageWidth / 4
	if target < 1 || target == label.Bounds().Dx() {
		return label
	}
	filter := imaging.Lanczos
	if target > label.Bounds().Dx() {
		filter = imaging.NearestNeighbor
	}
	return imaging.Resize(label, target, 0, filter)
}
