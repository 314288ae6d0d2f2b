//go:build gocv
// +build gocv

package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"gocv.io/x/gocv"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// CV renders detection overlays through OpenCV. Behaviour matches
// Overlay; only the drawing backend differs.
type CV struct {
	Style Style
}

// NewCV creates a CV renderer with the default style.
func NewCV() *CV {
	return &CV{Style: DefaultStyle()}
}

// Render loads the record's source image, draws every detection in
// stored order (or the classification fallback), and returns the
// encoded PNG.
func (r *CV) Render(ctx context.Context, rec *annotation.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(rec.ImagePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source image %s: %w", rec.ImagePath, annotation.ErrNotFound)
		}

		return nil, &Error{Path: rec.ImagePath, Err: err}
	}

	mat := gocv.IMRead(rec.ImagePath, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, &Error{Path: rec.ImagePath, Err: fmt.Errorf("decoding: unreadable image")}
	}

	if len(rec.Detections) == 0 {
		gocv.PutText(&mat, rec.Classification, image.Pt(10, 30),
			gocv.FontHersheySimplex, 1, r.Style.TextColor, 2)
	} else {
		for _, d := range rec.Detections {
			r.drawDetection(&mat, d)
		}
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, &Error{Path: rec.ImagePath, Err: fmt.Errorf("encoding: %w", err)}
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())

	return out, nil
}

// drawDetection draws one box and its label above the top-left corner,
// shifted down when it would run off the frame.
func (r *CV) drawDetection(mat *gocv.Mat, d annotation.Detection) {
	b := d.BBox
	if b.Width <= 0 || b.Height <= 0 {
		return
	}

	rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
	gocv.Rectangle(mat, rect, r.Style.BoxColor, r.Style.Thickness)

	text := labelText(d)
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.6, 2)

	bgTop := b.Y - size.Y - r.Style.TextMargin
	if bgTop < 0 {
		bgTop = 0
	}

	gocv.Rectangle(mat, image.Rect(b.X, bgTop, b.X+size.X, b.Y), r.Style.LabelFill, -1)

	baseline := b.Y - r.Style.TextMargin
	if baseline < size.Y {
		baseline = size.Y
	}

	gocv.PutText(mat, text, image.Pt(b.X, baseline),
		gocv.FontHersheySimplex, 0.6, r.Style.TextColor, 2)
}
