// Package main provides the ocular-mosaic command: it builds mosaics from
// the microscope sub-images stored for each sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ocular-mosaic/internal/app"
	"ocular-mosaic/internal/config"
	imgpkg "ocular-mosaic/internal/image"
	"ocular-mosaic/internal/mosaic"
	"ocular-mosaic/internal/store"
	"ocular-mosaic/internal/version"
	"ocular-mosaic/internal/vision"
	"ocular-mosaic/internal/vision/opencv"
)

const usage = `Usage: ocular-mosaic [flags] <command> [sample...]

Commands:
  run <sample...>   build the mosaic of the given samples
  batch             build mosaics for every sample in the store
  pending           build mosaics for samples with new frames
  watch             poll for samples with new frames until interrupted
  presets           list the available presets

Flags:
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "YAML configuration file")
	dbPath := flag.String("db", "", "SQLite sample store (overrides config)")
	preset := flag.String("preset", "", "Preset name (default from config)")
	strategy := flag.String("strategy", "", "Override compositor: geometric or grid")
	fallbackGrid := flag.Bool("fallback-grid", false, "Rebuild as grid when stitching fails")
	outDir := flag.String("out", "", "Also write each composite as a JPEG into this directory")
	workers := flag.Int("workers", 0, "Concurrent samples in batch mode (overrides config)")
	accel := flag.Bool("accel", false, "Request hardware acceleration")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("ocular-mosaic %s\n", version.String())
		return
	}
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	overrides := config.Overrides{
		DB:           *dbPath,
		Workers:      *workers,
		LogLevel:     *logLevel,
		FallbackGrid: *fallbackGrid,
		Acceleration: *accel,
		Preset:       *preset,
		Strategy:     mosaic.Strategy(*strategy),
	}
	if err := overrides.Apply(cfg); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if flag.Arg(0) == "presets" {
		printPresets(cfg)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	caps := vision.Probe(vision.HashPerception)
	if !caps.PerceptualHash {
		logger.Warn("perceptual hashing unavailable, duplicate detection disabled")
	}
	runner := app.NewRunner(st, cfg, toolkitFactory(caps, cfg.Acceleration, logger), logger)
	if *outDir != "" {
		runner.On(app.EventRunSucceeded, func(data interface{}) {
			ev := data.(app.RunEvent)
			if err := writeComposite(*outDir, ev.Result); err != nil {
				logger.Error("write composite", "sample", ev.SampleID, "error", err)
			}
		})
	}

	var outcomes []app.Outcome
	switch cmd := flag.Arg(0); cmd {
	case "run":
		if flag.NArg() < 2 {
			log.Fatal("run: no sample ids given")
		}
		outcomes = runner.RunBatch(ctx, flag.Args()[1:], *preset)
	case "batch":
		ids, err := st.ListSampleIDs(ctx)
		if err != nil {
			log.Fatalf("Failed to list samples: %v", err)
		}
		outcomes = runner.RunBatch(ctx, ids, *preset)
	case "pending":
		if outcomes, err = runner.RunPending(ctx, *preset); err != nil {
			log.Fatalf("Failed to run pending samples: %v", err)
		}
	case "watch":
		runWatch(ctx, runner, *configPath, *preset, overrides, logger)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	printOutcomes(outcomes)
	if len(app.Failed(outcomes)) > 0 {
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// toolkitFactory opens the OpenCV handles for each run and attaches a
// hasher when the preset wants dedup and hashing works here.
func toolkitFactory(caps vision.Capabilities, accel bool, logger *slog.Logger) app.ToolkitFactory {
	return func(pc mosaic.Config) (vision.Toolkit, func(), error) {
		opts := opencv.DefaultOptions()
		opts.Acceleration = accel
		opts.Logger = logger
		if pc.Dedup && caps.PerceptualHash {
			h, err := vision.NewHasher(pc.HashKind)
			if err != nil {
				return vision.Toolkit{}, nil, err
			}
			opts.Hasher = h
		}
		tk := opencv.Open(opts)
		return tk.Vision(), func() { tk.Close() }, nil
	}
}

func runWatch(ctx context.Context, runner *app.Runner, configPath, preset string, overrides config.Overrides, logger *slog.Logger) {
	if configPath != "" {
		if w := app.NewConfigWatcher(configPath, 2*time.Second); w != nil {
			runner.ReloadOnChange(w, overrides)
			w.Start()
			defer w.Stop()
			logger.Info("watching config", "path", configPath)
		}
	}
	logger.Info("watching for new frames", "interval", runner.Config().PollInterval)
	if err := runner.Watch(ctx, preset); err != nil && ctx.Err() == nil {
		log.Fatalf("Watch failed: %v", err)
	}
}

func writeComposite(dir string, res *mosaic.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := imgpkg.EncodeJPEG(res.Image, res.JPEGQuality)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.jpg", res.SampleID, res.Tag))
	return os.WriteFile(path, data, 0o644)
}

func printPresets(cfg *config.Config) {
	fmt.Printf("%-14s %-10s %-5s %-5s %6s %6s\n", "PRESET", "STRATEGY", "CROP", "DEDUP", "CAP", "SCALE")
	for _, name := range cfg.PresetNames() {
		pc, err := cfg.Preset(name)
		if err != nil {
			continue
		}
		marker := ""
		if name == cfg.DefaultPreset {
			marker = " (default)"
		}
		fmt.Printf("%-14s %-10s %-5v %-5v %6d %6.2f%s\n",
			name, pc.Strategy, pc.Crop, pc.Dedup, pc.MaxFrames, pc.StitchScale, marker)
	}
}

func printOutcomes(outcomes []app.Outcome) {
	fmt.Printf("\n%-38s %-9s %7s %s\n", "SAMPLE", "TAG", "FRAMES", "RESULT")
	fmt.Println(strings.Repeat("-", 72))
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%-38s %-9s %7s FAILED: %v\n", o.SampleID, "-", "-", o.Err)
			continue
		}
		r := o.Result
		fmt.Printf("%-38s %-9s %7d %s\n", o.SampleID, r.Tag, len(r.FrameIDs), r.MosaicID)
	}
	fmt.Printf("\n%d samples, %d failed\n", len(outcomes), len(app.Failed(outcomes)))
}
