package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annowatch/internal/annotation"
)

// writeTestImage writes a uniform gray PNG of the given size and
// returns its path.
func writeTestImage(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 128, G: 128, B: 128, A: 255}},
		image.Point{}, draw.Src)

	path := filepath.Join(t.TempDir(), "test.png")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, img))

	return path
}

func recordFor(imagePath string, detections ...annotation.Detection) *annotation.Record {
	return &annotation.Record{
		ImageFilename:  filepath.Base(imagePath),
		ImagePath:      imagePath,
		Classification: "anomaly",
		Detections:     detections,
	}
}

func TestOverlay_RenderDrawsBox(t *testing.T) {
	imagePath := writeTestImage(t, 120, 100)
	rec := recordFor(imagePath, annotation.Detection{
		ID: 1, Type: "scratch", Confidence: 0.92,
		BBox: annotation.BBox{X: 10, Y: 40, Width: 50, Height: 30},
	})

	data, err := NewOverlay().Render(context.Background(), rec)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 100), img.Bounds())

	// Top-left corner of the box outline carries the box color.
	r, g, b, _ := img.At(10, 40).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)

	// Interior of the box is untouched source.
	r, g, b, _ = img.At(35, 55).RGBA()
	assert.Equal(t, uint32(0x8080), r)
	assert.Equal(t, uint32(0x8080), g)
	assert.Equal(t, uint32(0x8080), b)
}

func TestOverlay_RenderIsDeterministic(t *testing.T) {
	imagePath := writeTestImage(t, 120, 100)
	rec := recordFor(imagePath, annotation.Detection{
		ID: 1, Type: "scratch", Confidence: 0.92,
		BBox: annotation.BBox{X: 10, Y: 40, Width: 50, Height: 30},
	})

	o := NewOverlay()

	first, err := o.Render(context.Background(), rec)
	require.NoError(t, err)

	second, err := o.Render(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same record and image must yield byte-identical output")
}

func TestOverlay_EmptyDetectionsFallback(t *testing.T) {
	imagePath := writeTestImage(t, 120, 100)

	labeled := recordFor(imagePath)
	labeled.Classification = "normal"

	unlabeled := recordFor(imagePath)
	unlabeled.Classification = ""

	o := NewOverlay()

	withText, err := o.Render(context.Background(), labeled)
	require.NoError(t, err)

	withoutText, err := o.Render(context.Background(), unlabeled)
	require.NoError(t, err)

	assert.NotEqual(t, withText, withoutText,
		"classification text must be rendered when the detection set is empty")
}

func TestOverlay_DrawOrderIsStoredOrder(t *testing.T) {
	imagePath := writeTestImage(t, 120, 100)

	a := annotation.Detection{ID: 1, Type: "a", Confidence: 0.5,
		BBox: annotation.BBox{X: 20, Y: 40, Width: 40, Height: 40}}
	b := annotation.Detection{ID: 2, Type: "b", Confidence: 0.5,
		BBox: annotation.BBox{X: 22, Y: 42, Width: 40, Height: 40}}

	o := NewOverlay()
	// Distinct colors so overlap order is observable.
	o.Style.LabelFill = color.RGBA{B: 255, A: 255}

	ab, err := o.Render(context.Background(), recordFor(imagePath, a, b))
	require.NoError(t, err)

	ba, err := o.Render(context.Background(), recordFor(imagePath, b, a))
	require.NoError(t, err)

	assert.NotEqual(t, ab, ba, "detection order determines overlay order")
}

func TestOverlay_DegenerateBoxSkipped(t *testing.T) {
	imagePath := writeTestImage(t, 120, 100)

	degenerate := recordFor(imagePath, annotation.Detection{
		ID: 1, Type: "scratch", Confidence: 0.5,
		BBox: annotation.BBox{X: 10, Y: 10, Width: 0, Height: 30},
	})

	blank := recordFor(imagePath)
	blank.Classification = ""

	o := NewOverlay()

	got, err := o.Render(context.Background(), degenerate)
	require.NoError(t, err)

	want, err := o.Render(context.Background(), blank)
	require.NoError(t, err)

	// Nothing drawable → output matches the untouched source image.
	assert.Equal(t, want, got)
}

func TestOverlay_MissingSourceImage(t *testing.T) {
	rec := recordFor(filepath.Join(t.TempDir(), "gone.png"))

	_, err := NewOverlay().Render(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, annotation.ErrNotFound)
}

func TestOverlay_UndecodableSourceImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewOverlay().Render(context.Background(), recordFor(path))
	require.Error(t, err)

	var renderErr *Error
	assert.ErrorAs(t, err, &renderErr)
}

func TestOverlay_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOverlay().Render(ctx, recordFor(writeTestImage(t, 10, 10)))
	assert.ErrorIs(t, err, context.Canceled)
}
