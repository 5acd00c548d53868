package mosaic

import (
	"log/slog"

	"ocular-mosaic/internal/vision"
)

// FingerprintSet holds the fingerprints accepted during one run.
type FingerprintSet struct {
	prints []vision.Fingerprint
}

// Len returns the number of accepted fingerprints.
func (s *FingerprintSet) Len() int { return len(s.prints) }

// Add records an accepted fingerprint.
func (s *FingerprintSet) Add(fp vision.Fingerprint) {
	s.prints = append(s.prints, fp)
}

// IsDuplicate reports whether fp lies within maxDistance of any fingerprint
// already in the set.
func (s *FingerprintSet) IsDuplicate(fp vision.Fingerprint, maxDistance int) bool {
	for _, other := range s.prints {
		d, err := fp.Distance(other)
		if err != nil {
			continue
		}
		if d <= maxDistance {
			return true
		}
	}
	return false
}

// DuplicateDetector is a greedy, order-sensitive near-duplicate filter.
// The first occurrence of an image wins.
type DuplicateDetector struct {
	hasher      vision.Hasher
	maxDistance int
	seen        FingerprintSet
	logger      *slog.Logger
}

// NewDuplicateDetector returns a detector; a nil hasher yields a detector
// that never rejects.
func NewDuplicateDetector(hasher vision.Hasher, maxDistance int, logger *slog.Logger) *DuplicateDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuplicateDetector{hasher: hasher, maxDistance: maxDistance, logger: logger}
}

// Enabled reports whether hashing is available.
func (d *DuplicateDetector) Enabled() bool {
	return d.hasher != nil
}

// Accept fingerprints the tile thumbnail and reports whether the tile is
// new. Accepted fingerprints join the set; a hashing error keeps the tile.
func (d *DuplicateDetector) Accept(t Tile) bool {
	if d.hasher == nil {
		return true
	}
	fp, err := d.hasher.Fingerprint(t.Thumb)
	if err != nil {
		d.logger.Warn("dedup: fingerprint failed, keeping tile", "frame", t.SourceID, "error", err)
		return true
	}
	if d.seen.IsDuplicate(fp, d.maxDistance) {
		return false
	}
	d.seen.Add(fp)
	return true
}
