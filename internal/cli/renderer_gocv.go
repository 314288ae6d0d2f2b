//go:build gocv
// +build gocv

package cli

import "github.com/hupe1980/annowatch/internal/render"

// newRenderer returns the OpenCV-backed renderer when the gocv build
// tag is enabled.
func newRenderer() render.Renderer {
	return render.NewCV()
}
