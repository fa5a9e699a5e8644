// Package photo downsizes report photos to fit the storage budget.
package photo

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// MsgImageProcessing is shown when a photo cannot be decoded; the user
// must reselect or retake the image.
const MsgImageProcessing = "Impossible de traiter l'image"

// ImageProcessingError reports a source image that could not be decoded
// or re-encoded. Retrying with the same bytes will not help.
type ImageProcessingError struct {
	Err error
}

func (e *ImageProcessingError) Error() string { return MsgImageProcessing + ": " + e.Err.Error() }
func (e *ImageProcessingError) Unwrap() error { return e.Err }

// Compressor iteratively shrinks a photo until its estimated stored
// size fits a byte budget. Output is always JPEG regardless of input
// format.
type Compressor struct {
	// InitialWidth is the width of the first attempt; images narrower
	// than this are not upscaled.
	InitialWidth int
	// InitialQuality and QualityFloor are JPEG qualities in [1, 100].
	// The floor bounds the loop: once quality reaches it, the last
	// attempt is returned even if the budget is still exceeded.
	InitialQuality int
	QualityFloor   int
	QualityStep    int
	// WidthScale shrinks the width on each retry.
	WidthScale float64
	// EncodingOverhead is the inflation factor of the stored form over
	// the raw JPEG bytes (base64 is ~4/3).
	EncodingOverhead float64
}

func NewCompressor() *Compressor {
	return &Compressor{
		InitialWidth:     800,
		InitialQuality:   80,
		QualityFloor:     10,
		QualityStep:      10,
		WidthScale:       0.9,
		EncodingOverhead: 4.0 / 3.0,
	}
}

// Result is one compressed photo attempt.
type Result struct {
	Data    []byte
	Width   int
	Quality int
}

// EstimatedStoredSize is the projected size of the stored (encoded)
// form of the JPEG bytes.
func (c *Compressor) EstimatedStoredSize(jpegBytes int) int {
	return int(float64(jpegBytes) * c.EncodingOverhead)
}

// Compress decodes src, resizes it to the initial width, and re-encodes
// at decreasing width and quality until the estimated stored size fits
// maxEncodedBytes or quality hits the floor. Always terminates; when
// the budget is unreachable the smallest attempt is returned.
func (c *Compressor) Compress(src []byte, maxEncodedBytes int) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageProcessingError{Err: err}
	}

	width := c.InitialWidth
	if w := img.Bounds().Dx(); w > 0 && w < width {
		width = w
	}
	quality := c.InitialQuality

	encoded, err := c.encode(img, width, quality)
	if err != nil {
		return nil, err
	}

	for c.EstimatedStoredSize(len(encoded)) > maxEncodedBytes && quality > c.QualityFloor {
		quality -= c.QualityStep
		if quality < c.QualityFloor {
			quality = c.QualityFloor
		}
		width = int(float64(width) * c.WidthScale)
		if width < 1 {
			width = 1
		}
		encoded, err = c.encode(img, width, quality)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Data: encoded, Width: width, Quality: quality}, nil
}

func (c *Compressor) encode(img image.Image, width, quality int) ([]byte, error) {
	resized := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, &ImageProcessingError{Err: err}
	}
	return buf.Bytes(), nil
}
