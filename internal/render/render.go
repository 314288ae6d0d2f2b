// Package render turns an annotation record into an overlay image: the
// source image with every detection box and label drawn on top, or the
// record's classification drawn alone when there are no detections.
//
// Two implementations share the contract: Overlay draws with the
// standard image libraries and is always available; CV draws through
// OpenCV and is compiled in with the "gocv" build tag.
package render

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// Renderer produces the encoded overlay image for a record. Detections
// are drawn strictly in stored order, so later entries overlay earlier
// ones at overlapping coordinates.
type Renderer interface {
	Render(ctx context.Context, rec *annotation.Record) ([]byte, error)
}

// Error reports a failure to decode, draw, or encode an overlay.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Style controls box and label appearance. Styling is policy, not
// correctness: any fixed style yields deterministic output.
type Style struct {
	BoxColor   color.RGBA
	TextColor  color.RGBA
	LabelFill  color.RGBA
	Thickness  int
	TextMargin int
}

// DefaultStyle returns the stock red-box, yellow-text style.
func DefaultStyle() Style {
	return Style{
		BoxColor:   color.RGBA{R: 255, A: 255},
		TextColor:  color.RGBA{R: 255, G: 255, A: 255},
		LabelFill:  color.RGBA{R: 255, A: 255},
		Thickness:  2,
		TextMargin: 10,
	}
}

// labelText formats the text drawn above a detection box.
func labelText(d annotation.Detection) string {
	return fmt.Sprintf("%s (%.2f)", d.Type, d.Confidence)
}
