package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads and decodes the record at path. A missing file yields an
// error wrapping [ErrNotFound]; malformed or structurally invalid
// content yields a [*ParseError]. Load never mutates the file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("record %s: %w", path, ErrNotFound)
		}

		return nil, fmt.Errorf("reading record %s: %w", path, err)
	}

	var rec Record

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if err := rec.validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return &rec, nil
}

// Save encodes rec as indented JSON and rewrites path whole, creating
// the parent directory if needed. Derived fields (per-detection centers
// and the detection count) are recomputed from the boxes before
// encoding.
func Save(rec *Record, path string) error {
	for i := range rec.Detections {
		b := rec.Detections[i].BBox
		rec.Detections[i].Center = Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
	}

	rec.TotalCount = len(rec.Detections)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing record %s: %w", path, err)
	}

	return nil
}
