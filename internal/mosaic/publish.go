package mosaic

import (
	"context"
	"fmt"
	"image"

	imgpkg "ocular-mosaic/internal/image"
)

// Publisher encodes composites as JPEG and stores them as derived images.
type Publisher struct {
	Store   ImageStore
	Quality int
}

// Publish stores img under sampleID with the given tag and returns the new
// frame id.
func (p *Publisher) Publish(ctx context.Context, sampleID string, img image.Image, tag string) (string, error) {
	data, err := imgpkg.EncodeJPEG(img, p.Quality)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", tag, err)
	}
	id, err := p.Store.PublishDerived(ctx, sampleID, data, tag)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", tag, err)
	}
	return id, nil
}
