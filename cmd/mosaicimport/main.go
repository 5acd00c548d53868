// Command mosaicimport stores a directory of ocular sub-images as the raw
// frames of one sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/store"
)

func main() {
	dbPath := flag.String("db", "data/samples.db", "SQLite sample store")
	sampleID := flag.String("sample", "", "Sample id to attach the frames to")
	dir := flag.String("dir", "", "Directory of frames (TIFF, PNG, or JPEG)")
	check := flag.Bool("check", true, "Decode each frame before storing it")
	flag.Parse()

	if *sampleID == "" || *dir == "" {
		fmt.Println("Usage: mosaicimport -sample <id> -dir <frames> [-db data/samples.db]")
		os.Exit(1)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read directory: %v\n", err)
		os.Exit(1)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && imgpkg.IsSupportedFormat(e.Name()) {
			paths = append(paths, filepath.Join(*dir, e.Name()))
		}
	}
	// Upload order is filename order.
	sort.Strings(paths)
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "No frames found in %s (supported: %v)\n", *dir, imgpkg.SupportedFormats())
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	fmt.Printf("Importing %d frames into sample %s\n", len(paths), *sampleID)
	var imported, skipped int
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", filepath.Base(path), err)
			skipped++
			continue
		}
		if *check {
			img, err := imgpkg.Decode(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", filepath.Base(path), err)
				skipped++
				continue
			}
			b := img.Bounds()
			fmt.Printf("  %-32s %5dx%-5d", filepath.Base(path), b.Dx(), b.Dy())
		} else {
			fmt.Printf("  %-32s", filepath.Base(path))
		}

		f, err := st.AddRawFrame(ctx, *sampleID, path, data)
		if err != nil {
			fmt.Printf(" FAILED\n")
			fmt.Fprintf(os.Stderr, "Failed to store frame: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf(" -> %s\n", f.ID)
		imported++
	}

	fmt.Printf("\nImported %d frames, skipped %d\n", imported, skipped)
}
