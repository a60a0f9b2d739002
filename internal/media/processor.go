// Package media turns uploaded images into normalised WebP objects and stores
// them on local disk or in S3.
package media

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	"scrolla/internal/models"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MaxDimension bounds both sides of a stored image.
	MaxDimension = 2048
	WebPQuality  = 80
	// OutputContentType is the content type of every stored image.
	OutputContentType = "image/webp"
)

// Processor validates and re-encodes uploaded images.
type Processor struct {
	maxBytes int64
}

// NewProcessor returns a Processor rejecting inputs over maxSizeMB.
func NewProcessor(maxSizeMB int) *Processor {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &Processor{maxBytes: int64(maxSizeMB) * 1024 * 1024}
}

// Process decodes content, shrinks it to fit MaxDimension and returns it as WebP.
func (p *Processor) Process(content []byte, contentType string) ([]byte, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > p.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", p.maxBytes/(1024*1024)))
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Only image files are allowed")
	}
	if provided := normalizeContentType(contentType); provided != "" && !strings.HasPrefix(provided, "image/") {
		return nil, models.NewValidationError("Only image files are allowed")
	}

	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, fit(img), &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

func fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxDimension && b.Dy() <= MaxDimension {
		return img
	}
	return imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
