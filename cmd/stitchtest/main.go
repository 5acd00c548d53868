// Command stitchtest runs only the geometric stitcher on image files and
// prints the status of each mode.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/vision"
	"ocular-mosaic/internal/vision/opencv"
)

func main() {
	scale := flag.Float64("scale", 0.25, "Downscale factor before stitching")
	out := flag.String("o", "", "Write the first successful result to this JPEG")
	ratio := flag.Float64("ratio", 0, "Lowe ratio test threshold (default from params)")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Println("Usage: stitchtest [-scale 0.25] [-o out.jpg] <image> <image> [image...]")
		os.Exit(1)
	}

	var imgs []image.Image
	for _, path := range flag.Args() {
		img, err := imgpkg.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", path, err)
			os.Exit(1)
		}
		b := img.Bounds()
		img = imgpkg.Thumbnail(img, *scale)
		s := img.Bounds()
		fmt.Printf("Loaded %s: %dx%d -> %dx%d\n", path, b.Dx(), b.Dy(), s.Dx(), s.Dy())
		imgs = append(imgs, img)
	}

	params := opencv.DefaultStitchParams()
	if *ratio > 0 {
		params.RatioTest = *ratio
	}
	fmt.Printf("\nStitch parameters:\n")
	fmt.Printf("  Ratio test: %.2f\n", params.RatioTest)
	fmt.Printf("  Min matches / inliers: %d / %d\n", params.MinMatches, params.MinInliers)
	fmt.Printf("  RANSAC threshold: %.1f px\n", params.RansacThreshold)

	stitcher := opencv.NewStitcher(params, nil)
	var written bool
	for _, mode := range []vision.Mode{vision.ModePanorama, vision.ModeScans} {
		start := time.Now()
		pano, status := stitcher.Stitch(imgs, mode)
		fmt.Printf("\n=== %s: %s (%.1fs) ===\n", mode, status, time.Since(start).Seconds())
		if status != vision.StatusOK {
			continue
		}
		b := pano.Bounds()
		fmt.Printf("Result: %dx%d\n", b.Dx(), b.Dy())
		if *out != "" && !written {
			data, err := imgpkg.EncodeJPEG(pano, 95)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to encode: %v\n", err)
				os.Exit(1)
			}
			if err := os.WriteFile(*out, data, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
				os.Exit(1)
			}
			fmt.Printf("Wrote %s\n", *out)
			written = true
		}
	}
}
