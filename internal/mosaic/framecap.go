package mosaic

import (
	"sort"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// CapFrames uniformly samples tiles down to limit without replacement. The
// selected tiles keep their relative order. limit <= 0 or len(tiles) <= limit
// returns tiles unchanged. seed 0 uses the clock.
func CapFrames(tiles []Tile, limit int, seed int64) []Tile {
	if limit <= 0 || len(tiles) <= limit {
		return tiles
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	idx := make([]int, limit)
	src := rand.NewSource(uint64(seed))
	sampleuv.WithoutReplacement(idx, len(tiles), src)
	sort.Ints(idx)

	out := make([]Tile, limit)
	for i, j := range idx {
		out[i] = tiles[j]
	}
	return out
}
