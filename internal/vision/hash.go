package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/corona10/goimagehash"
)

// HashKind names a perceptual hash algorithm.
type HashKind string

const (
	HashPerception HashKind = "perception"
	HashAverage    HashKind = "average"
	HashDifference HashKind = "difference"
)

// HashKinds lists the supported algorithms.
func HashKinds() []HashKind {
	return []HashKind{HashPerception, HashAverage, HashDifference}
}

// Fingerprint is a 64-bit perceptual signature of an image.
type Fingerprint struct {
	hash *goimagehash.ImageHash
}

// NewFingerprint wraps a raw 64-bit perception hash.
func NewFingerprint(bits uint64) Fingerprint {
	return Fingerprint{hash: goimagehash.NewImageHash(bits, goimagehash.PHash)}
}

// ParseFingerprint reads a fingerprint written by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	h, err := goimagehash.ImageHashFromString(s)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("parse fingerprint: %w", err)
	}
	return Fingerprint{hash: h}, nil
}

// Bits returns the raw hash value.
func (f Fingerprint) Bits() uint64 {
	if f.hash == nil {
		return 0
	}
	return f.hash.GetHash()
}

// Distance returns the Hamming distance between two fingerprints of the same kind.
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.hash == nil || other.hash == nil {
		return 0, fmt.Errorf("empty fingerprint")
	}
	return f.hash.Distance(other.hash)
}

// String returns the hash in goimagehash's "kind:hex" form.
func (f Fingerprint) String() string {
	if f.hash == nil {
		return ""
	}
	return f.hash.ToString()
}

// Hasher derives fingerprints from images.
type Hasher interface {
	Fingerprint(img image.Image) (Fingerprint, error)
}

type imageHasher struct {
	kind HashKind
	fn   func(image.Image) (*goimagehash.ImageHash, error)
}

// NewHasher returns a Hasher for the given algorithm. An empty kind selects
// the perception hash.
func NewHasher(kind HashKind) (Hasher, error) {
	switch kind {
	case HashPerception, "":
		return &imageHasher{kind: HashPerception, fn: goimagehash.PerceptionHash}, nil
	case HashAverage:
		return &imageHasher{kind: kind, fn: goimagehash.AverageHash}, nil
	case HashDifference:
		return &imageHasher{kind: kind, fn: goimagehash.DifferenceHash}, nil
	default:
		return nil, fmt.Errorf("unknown hash kind %q", kind)
	}
}

func (h *imageHasher) Fingerprint(img image.Image) (Fingerprint, error) {
	hash, err := h.fn(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%s hash: %w", h.kind, err)
	}
	return Fingerprint{hash: hash}, nil
}

// Capabilities records which optional capabilities work in this process.
// It is computed once at startup by Probe.
type Capabilities struct {
	PerceptualHash bool
}

// Probe checks the optional capabilities by exercising them on a small
// synthetic image.
func Probe(kind HashKind) Capabilities {
	var caps Capabilities
	h, err := NewHasher(kind)
	if err != nil {
		return caps
	}
	probe := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			probe.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}
	if _, err := h.Fingerprint(probe); err == nil {
		caps.PerceptualHash = true
	}
	return caps
}
