package mosaic

import (
	"context"
	"fmt"
	"image"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/store"
)

// ImageStore is the part of the sample image store the pipeline uses.
type ImageStore interface {
	ListRawFrames(ctx context.Context, sampleID string) ([]store.Frame, error)
	PublishDerived(ctx context.Context, sampleID string, data []byte, tag string) (string, error)
}

// RawFrame is a decoded sub-image as stored for a sample.
type RawFrame struct {
	ID       string
	Seq      int64
	Filename string
	Image    image.Image
}

// LoadFrames lists the raw frames of a sample in upload order and decodes
// them. Frames that fail to decode are skipped and returned as failures.
func LoadFrames(ctx context.Context, st ImageStore, sampleID string) ([]RawFrame, []*FrameDecodeError, error) {
	stored, err := st.ListRawFrames(ctx, sampleID)
	if err != nil {
		return nil, nil, fmt.Errorf("load frames: %w", err)
	}

	frames := make([]RawFrame, 0, len(stored))
	var failures []*FrameDecodeError
	for _, f := range stored {
		img, err := imgpkg.Decode(f.Data)
		if err != nil {
			failures = append(failures, &FrameDecodeError{FrameID: f.ID, Err: err})
			continue
		}
		frames = append(frames, RawFrame{
			ID:       f.ID,
			Seq:      f.Seq,
			Filename: f.Filename,
			Image:    img,
		})
	}
	return frames, failures, nil
}
