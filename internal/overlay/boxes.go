package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/nfnt/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/steve-z-wang/webtask-sub000/internal/dom"
)

// Box is one identifier and the area its element covers on the page, in CSS
// pixels relative to the document origin.
type Box struct {
	ID     string
	Bounds dom.BoundingBox
}

// Options controls how boxes are drawn
type Options struct {
	// Scale converts CSS pixels to screenshot pixels (device pixel ratio).
	Scale     float64
	Color     color.RGBA
	Thickness int
	// MaxWidth downsizes the result when the screenshot is wider. 0 keeps the
	// original size.
	MaxWidth uint
}

// DefaultOptions returns red 2px outlines at scale 1
func DefaultOptions() Options {
	return Options{
		Scale:     1,
		Color:     color.RGBA{220, 38, 38, 255},
		Thickness: 2,
	}
}

func (o Options) normalized() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Thickness <= 0 {
		o.Thickness = 1
	}
	if o.Color.A == 0 {
		o.Color = DefaultOptions().Color
	}
	return o
}

var labelText = color.RGBA{255, 255, 255, 255}

// Annotate decodes a PNG screenshot and outlines each box with its identifier
func Annotate(screenshot []byte, boxes []Box, opts Options) (image.Image, error) {
	src, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return Resize(Draw(src, boxes, opts), opts.MaxWidth), nil
}

// Draw returns a copy of img with the boxes drawn on it. Boxes with no area
// or entirely outside the image are skipped.
func Draw(img image.Image, boxes []Box, opts Options) image.Image {
	opts = opts.normalized()
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for _, b := range boxes {
		r := scaleRect(b.Bounds, opts.Scale).Add(bounds.Min)
		if r.Empty() || !r.Overlaps(bounds) {
			continue
		}
		drawRect(result, r, opts.Thickness, opts.Color)
		drawLabel(result, r.Min, b.ID, opts.Color)
	}
	return result
}

// Resize scales img down to maxWidth keeping its aspect ratio
func Resize(img image.Image, maxWidth uint) image.Image {
	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return img
	}
	return resize.Resize(maxWidth, 0, img, resize.Lanczos3)
}

// Encode writes img as PNG
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func scaleRect(b dom.BoundingBox, scale float64) image.Rectangle {
	x0 := int(b.X * scale)
	y0 := int(b.Y * scale)
	x1 := int((b.X + b.Width) * scale)
	y1 := int((b.Y + b.Height) * scale)
	return image.Rect(x0, y0, x1, y1)
}

func drawRect(img *image.RGBA, r image.Rectangle, thickness int, c color.RGBA) {
	for i := 0; i < thickness; i++ {
		x0, y0 := r.Min.X+i, r.Min.Y+i
		x1, y1 := r.Max.X-1-i, r.Max.Y-1-i
		if x0 > x1 || y0 > y1 {
			return
		}
		drawLine(img, x0, y0, x1, y0, c)
		drawLine(img, x1, y0, x1, y1, c)
		drawLine(img, x1, y1, x0, y1, c)
		drawLine(img, x0, y1, x0, y0, c)
	}
}

// drawLabel writes id on a filled tag just above the box's top-left corner,
// or inside the box when there is no room above.
func drawLabel(img *image.RGBA, at image.Point, id string, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(labelText), Face: face}
	width := d.MeasureString(id).Ceil() + 4
	height := face.Height + 2

	tag := image.Rect(at.X, at.Y-height, at.X+width, at.Y)
	if tag.Min.Y < img.Bounds().Min.Y {
		tag = tag.Add(image.Pt(0, height))
	}
	draw.Draw(img, tag.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(tag.Min.X+2, tag.Min.Y+1+face.Ascent)
	d.DrawString(id)
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	bounds := img.Bounds()
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
