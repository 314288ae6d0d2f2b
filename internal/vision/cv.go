//go:build gocv
// +build gocv

package vision

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

// CVDetector finds anomalous regions by edge contours: grayscale →
// blur → Canny → external contours → bounding rectangles, filtered by
// relative area and aspect ratio.
type CVDetector struct {
	// MinAreaRatio is the minimum region area relative to the image.
	MinAreaRatio float64

	// MinAspectRatio / MaxAspectRatio bound width/height of a region.
	MinAspectRatio float64
	MaxAspectRatio float64
}

// NewCVDetector creates a detector with the stock thresholds.
func NewCVDetector() *CVDetector {
	return &CVDetector{
		MinAreaRatio:   0.001,
		MinAspectRatio: 0.1,
		MaxAspectRatio: 10.0,
	}
}

// Detect runs the contour pipeline on the image at imagePath.
func (d *CVDetector) Detect(ctx context.Context, imagePath string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(imagePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image %s: %w", imagePath, annotation.ErrNotFound)
		}

		return nil, err
	}

	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoding image %s: unreadable", imagePath)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blur, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	minArea := int(float64(mat.Cols()*mat.Rows()) * d.MinAreaRatio)

	var detections []annotation.Detection

	for i := 0; i < contours.Size(); i++ {
		rect := gocv.BoundingRect(contours.At(i))

		area := rect.Dx() * rect.Dy()
		if area < minArea || rect.Dy() == 0 {
			continue
		}

		aspect := float64(rect.Dx()) / float64(rect.Dy())
		if aspect < d.MinAspectRatio || aspect > d.MaxAspectRatio {
			continue
		}

		detections = append(detections, annotation.Detection{
			ID:         len(detections) + 1,
			Type:       "anomaly",
			Confidence: confidenceFor(area, mat.Cols()*mat.Rows()),
			BBox: annotation.BBox{
				X:      rect.Min.X,
				Y:      rect.Min.Y,
				Width:  rect.Dx(),
				Height: rect.Dy(),
			},
		})
	}

	classification := ClassNormal
	if len(detections) > 0 {
		classification = ClassAnomaly
	}

	return &Result{Classification: classification, Detections: detections}, nil
}

// confidenceFor maps relative region size to a coarse confidence score.
func confidenceFor(area, total int) float64 {
	if total <= 0 {
		return 0
	}

	ratio := float64(area) / float64(total)
	if ratio > 0.05 {
		return 0.95
	}

	return 0.5 + ratio*9 // 0.5 at vanishing area, up to ~0.95
}
