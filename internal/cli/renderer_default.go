//go:build !gocv
// +build !gocv

package cli

import "github.com/hupe1980/annowatch/internal/render"

// newRenderer returns the pure-Go overlay renderer used by default
// builds.
func newRenderer() render.Renderer {
	return render.NewOverlay()
}
