//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"
)

// CVDetector is the OpenCV-backed detector. Without the gocv build tag
// it only reports that the backend is unavailable.
type CVDetector struct {
	MinAreaRatio   float64
	MinAspectRatio float64
	MaxAspectRatio float64
}

// NewCVDetector creates a detector stub.
func NewCVDetector() *CVDetector {
	return &CVDetector{
		MinAreaRatio:   0.001,
		MinAspectRatio: 0.1,
		MaxAspectRatio: 10.0,
	}
}

// Detect returns an error: the binary was built without the gocv tag.
func (d *CVDetector) Detect(_ context.Context, _ string) (*Result, error) {
	return nil, errors.New("gocv build tag is not enabled")
}
