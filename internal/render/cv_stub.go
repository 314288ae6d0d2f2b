//go:build !gocv
// +build !gocv

package render

import (
	"context"
	"errors"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// CV is the OpenCV-backed renderer. Without the gocv build tag it only
// reports that the backend is unavailable.
type CV struct {
	Style Style
}

// NewCV creates a CV renderer stub.
func NewCV() *CV {
	return &CV{Style: DefaultStyle()}
}

// Render returns an error: the binary was built without the gocv tag.
func (r *CV) Render(_ context.Context, _ *annotation.Record) ([]byte, error) {
	return nil, errors.New("gocv build tag is not enabled")
}
