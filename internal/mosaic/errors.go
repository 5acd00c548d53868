package mosaic

import (
	"errors"
	"fmt"

	"ocular-mosaic/internal/vision"
)

// ErrNoUsableFrames means no frame survived loading and selection.
var ErrNoUsableFrames = errors.New("mosaic: no usable frames")

// ErrAssemblyFailed is returned by the grid assembler when it has nothing
// to lay out. It matches ErrNoUsableFrames with errors.Is.
var ErrAssemblyFailed = fmt.Errorf("mosaic: grid assembly failed: %w", ErrNoUsableFrames)

// StitchingFailedError carries the status of both geometric attempts.
type StitchingFailedError struct {
	Panorama vision.Status
	Scans    vision.Status
}

func (e *StitchingFailedError) Error() string {
	return fmt.Sprintf("mosaic: stitching failed (panorama=%s, scans=%s)", e.Panorama, e.Scans)
}

// FrameDecodeError describes a raw frame whose bytes could not be decoded.
// Such frames are skipped.
type FrameDecodeError struct {
	FrameID string
	Err     error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("mosaic: decode frame %s: %v", e.FrameID, e.Err)
}

func (e *FrameDecodeError) Unwrap() error { return e.Err }
