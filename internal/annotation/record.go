// Package annotation reads and writes the JSON detection records that
// describe one inspected image: the classification label, the ordered
// list of detected regions, and the paths of previously produced
// artifacts. Records are rewritten whole on every save; the package has
// no notion of history — only the current content of a file matters.
package annotation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RecordSuffix is the filename convention for detection records. Files
// without this suffix are ignored by the watcher regardless of content.
const RecordSuffix = "_detections.json"

// supportedFormat is the semver constraint a record's formatVersion must
// satisfy when the field is present. Records without the field are
// accepted as-is.
const supportedFormat = "^1"

// ErrNotFound reports that a record or the source image it references is
// missing from disk.
var ErrNotFound = errors.New("resource not found")

// ParseError reports a record file whose content could not be decoded or
// failed structural validation.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing record %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BBox is an integer pixel-space rectangle anchored at its top-left
// corner. Width and height are not validated here; the renderer decides
// how to treat degenerate boxes.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Detection is one annotated region of the source image. IDs are
// assigned 1-based at record creation and stay stable across edits to
// the other fields.
type Detection struct {
	ID         int     `json:"id"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`

	// Center is derived from BBox on save. It is informational only:
	// an external edit that moves the box without recomputing the
	// center leaves the record stale, and rendering reads BBox as
	// ground truth rather than silently fixing it.
	Center Point `json:"center"`
}

// OutputFiles holds the artifact paths from the last regeneration.
// Informational; overwritten on every save, never authoritative.
type OutputFiles struct {
	LabeledImage  string `json:"labeled_image,omitempty"`
	MaskImage     string `json:"mask_image,omitempty"`
	FilteredImage string `json:"filtered_image,omitempty"`
}

// Record is the structured description of one image's detections.
type Record struct {
	FormatVersion  string      `json:"format_version,omitempty"`
	ImageFilename  string      `json:"image_filename"`
	ImagePath      string      `json:"image_path"`
	ProcessedAt    string      `json:"processing_timestamp,omitempty"`
	Classification string      `json:"classification"`
	TotalCount     int         `json:"total_detections"`
	OutputFiles    OutputFiles `json:"output_files,omitempty"`
	Detections     []Detection `json:"detections"`
}

// BaseName returns the source image filename without its extension.
// Output artifact paths are derived from it, so the same record always
// maps to the same artifact location.
func (r *Record) BaseName() string {
	name := r.ImageFilename
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// validate checks the structural invariants a decoded record must hold.
func (r *Record) validate() error {
	if r.ImagePath == "" {
		return fmt.Errorf("missing image_path")
	}

	if r.FormatVersion != "" {
		if err := checkFormatVersion(r.FormatVersion); err != nil {
			return err
		}
	}

	return nil
}

// checkFormatVersion verifies a declared format version against the
// supported constraint.
func checkFormatVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format_version %q: %w", version, err)
	}

	c, err := semver.NewConstraint(supportedFormat)
	if err != nil {
		return fmt.Errorf("parsing format constraint: %w", err)
	}

	if !c.Check(v) {
		return fmt.Errorf("unsupported format_version %q (want %s)", version, supportedFormat)
	}

	return nil
}

// IsRecordPath reports whether path follows the record filename
// convention.
func IsRecordPath(path string) bool {
	return strings.HasSuffix(filepath.Base(path), RecordSuffix)
}

// RecordPath returns the canonical record path for an image filename
// inside jsonDir.
func RecordPath(jsonDir, imageFilename string) string {
	base := strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename))
	return filepath.Join(jsonDir, base+RecordSuffix)
}
