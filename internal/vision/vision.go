// Package vision runs the local anomaly detector that produces the
// initial annotation record for an image. It is consumed once per image
// at record creation; watch-triggered regeneration never re-invokes it.
//
// The OpenCV-backed detector is compiled in with the "gocv" build tag;
// without it a stub reports that detection is unavailable while the
// rest of the tool (watching, regeneration) keeps working.
package vision

import (
	"context"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// Classification labels assigned by the detector.
const (
	ClassAnomaly = "anomaly"
	ClassNormal  = "normal"
)

// Result is the outcome of one detector run: a whole-image label and
// the ordered detections, ids assigned 1-based in discovery order.
type Result struct {
	Classification string
	Detections     []annotation.Detection
}

// Detector analyses an image and returns a classification plus the
// detected regions.
type Detector interface {
	Detect(ctx context.Context, imagePath string) (*Result, error)
}
