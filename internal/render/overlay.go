package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io/fs"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// Decoders for the source image formats the pipeline accepts.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// Overlay renders detection overlays with the standard image libraries.
// Output is a PNG; identical input bytes and record content produce
// byte-identical output.
type Overlay struct {
	Style Style
}

// NewOverlay creates an Overlay renderer with the default style.
func NewOverlay() *Overlay {
	return &Overlay{Style: DefaultStyle()}
}

// Render loads the record's source image, draws every detection in
// stored order (or the classification fallback when there are none),
// and returns the encoded PNG.
func (o *Overlay) Render(ctx context.Context, rec *annotation.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := loadImage(rec.ImagePath)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	if len(rec.Detections) == 0 {
		// Documented fallback, not an error: an empty detection set
		// renders the record's classification as a single overlay.
		o.drawText(img, rec.Classification, 10, 30)
	} else {
		for _, d := range rec.Detections {
			o.drawDetection(img, d)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &Error{Path: rec.ImagePath, Err: fmt.Errorf("encoding: %w", err)}
	}

	return buf.Bytes(), nil
}

// loadImage reads and decodes the source image. A missing file maps to
// the not-found kind so callers can tell it apart from a decode failure.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source image %s: %w", path, annotation.ErrNotFound)
		}

		return nil, &Error{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("decoding: %w", err)}
	}

	return img, nil
}

// drawDetection draws one box and its label. The box's stored geometry
// is ground truth; the record's center field is ignored. Degenerate
// boxes (non-positive width or height) are skipped rather than failing
// the whole record.
func (o *Overlay) drawDetection(img *image.RGBA, d annotation.Detection) {
	b := d.BBox
	if b.Width <= 0 || b.Height <= 0 {
		return
	}

	o.drawRect(img, b.X, b.Y, b.X+b.Width, b.Y+b.Height)

	text := labelText(d)
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	textHeight := face.Height

	// Label background sits above the box, clamped to the frame.
	bgTop := b.Y - textHeight - o.Style.TextMargin
	if bgTop < 0 {
		bgTop = 0
	}

	fillRect(img, image.Rect(b.X, bgTop, b.X+textWidth, b.Y), o.Style.LabelFill)

	// Baseline shifts down instead of running off the top edge.
	baseline := b.Y - o.Style.TextMargin
	if baseline < textHeight {
		baseline = textHeight
	}

	o.drawText(img, text, b.X, baseline)
}

// drawRect draws an axis-aligned rectangle outline of the configured
// thickness.
func (o *Overlay) drawRect(img *image.RGBA, x0, y0, x1, y1 int) {
	t := o.Style.Thickness
	c := o.Style.BoxColor

	fillRect(img, image.Rect(x0, y0, x1, y0+t), c)   // top
	fillRect(img, image.Rect(x0, y1-t, x1, y1), c)   // bottom
	fillRect(img, image.Rect(x0, y0, x0+t, y1), c)   // left
	fillRect(img, image.Rect(x1-t, y0, x1, y1), c)   // right
}

// fillRect fills r clipped to the image bounds.
func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// drawText draws text with its baseline at (x, y).
func (o *Overlay) drawText(img *image.RGBA, text string, x, y int) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(o.Style.TextColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
