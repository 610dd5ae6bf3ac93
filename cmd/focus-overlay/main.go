package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	focusoverlay "github.com/menta2k/focus-overlay"
	"github.com/menta2k/focus-overlay/internal/config"
	"github.com/menta2k/focus-overlay/internal/logging"
	"github.com/menta2k/focus-overlay/internal/utils"
	"github.com/menta2k/focus-overlay/pkg/annotate"
	"github.com/menta2k/focus-overlay/pkg/client"
	"github.com/menta2k/focus-overlay/pkg/detection"
	"github.com/menta2k/focus-overlay/pkg/llamacpp"
	"github.com/menta2k/focus-overlay/pkg/loop"
	"github.com/menta2k/focus-overlay/pkg/metrics"
	"github.com/menta2k/focus-overlay/pkg/ollama"
	"github.com/menta2k/focus-overlay/pkg/processing"
	"github.com/menta2k/focus-overlay/pkg/source"
)

type options struct {
	in          string
	configPath  string
	saveConfig  string
	metricsAddr string
	debug       bool
	testVision  bool
}

// cycleReport is one entry of report.json
type cycleReport struct {
	Cycle       uint64                `json:"cycle"`
	Source      string                `json:"source"`
	Output      string                `json:"output,omitempty"`
	DurationMs  int64                 `json:"duration_ms"`
	Error       string                `json:"error,omitempty"`
	Annotations []annotate.Annotation `json:"annotations"`
}

func main() {
	cfg := config.Default()
	var opts options

	flag.StringVar(&opts.in, "in", "", "input frame: image path, directory of frames or URL (jpg/png/webp)")
	flag.StringVar(&opts.configPath, "config", "", "JSON config file (flags override it)")
	flag.StringVar(&opts.saveConfig, "save-config", "", "write the effective config to this path and exit")
	flag.StringVar(&opts.metricsAddr, "metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.BoolVar(&opts.debug, "debug", false, "debug logging")
	flag.BoolVar(&opts.testVision, "testvision", false, "ask the model to describe the first frame and exit")

	flag.StringVar(&cfg.Detector.Backend, "backend", cfg.Detector.Backend, "backend to use: ollama or llamacpp")
	flag.StringVar(&cfg.Detector.URL, "url", "", "server URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	flag.StringVar(&cfg.Detector.Model, "model", cfg.Detector.Model, "model name")
	flag.Float64Var(&cfg.Detector.MinConfidence, "minconf", cfg.Detector.MinConfidence, "drop detections below this confidence (0-1)")
	flag.StringVar(&cfg.Detector.SendFormat, "sendfmt", cfg.Detector.SendFormat, "format sent to the model: jpg|png")
	flag.IntVar(&cfg.Detector.SendSize, "sendsize", cfg.Detector.SendSize, "max long side sent to the model (px), 0=original")
	flag.IntVar(&cfg.Detector.SendQuality, "sendq", cfg.Detector.SendQuality, "JPEG quality for frames sent to the model (1-100)")

	flag.Float64Var(&cfg.Focus.Threshold, "threshold", cfg.Focus.Threshold, "sharpness above which a region is in focus")
	flag.BoolVar(&cfg.Loop.Throttled, "throttle", cfg.Loop.Throttled, "add 150ms between detection cycles")
	flag.IntVar(&cfg.Loop.PacingMs, "pacing", cfg.Loop.PacingMs, "base delay between cycles (ms)")
	flag.BoolVar(&cfg.Loop.Repeat, "repeat", cfg.Loop.Repeat, "loop over the input frames until interrupted")
	flag.IntVar(&cfg.Loop.MaxFrames, "frames", cfg.Loop.MaxFrames, "stop after this many cycles, 0=all")

	flag.StringVar(&cfg.Output.Dir, "out", cfg.Output.Dir, "output directory")
	flag.StringVar(&cfg.Output.Format, "ext", cfg.Output.Format, "output format for annotated frames: jpg|png|webp")
	flag.IntVar(&cfg.Output.Quality, "quality", cfg.Output.Quality, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&cfg.Output.Lossless, "lossless", cfg.Output.Lossless, "WebP output lossless mode")
	flag.BoolVar(&cfg.Output.Report, "report", cfg.Output.Report, "write report.json with every cycle's annotations")

	flag.Parse()

	logger, err := logging.New("focus-overlay", opts.debug)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if opts.configPath != "" {
		if cfg, err = loadWithOverrides(opts.configPath, cfg); err != nil {
			logger.Fatalw("invalid config file", "path", opts.configPath, "error", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	if opts.saveConfig != "" {
		if err := cfg.SaveToFile(opts.saveConfig); err != nil {
			logger.Fatalw("failed to save config", "error", err)
		}
		logger.Infow("wrote config", "path", opts.saveConfig)
		return
	}

	if opts.in == "" {
		log.Fatalf("usage: %s -in frame.jpg|frames_dir|URL [-backend ollama|llamacpp] [-url server_url] [-model name] [-out outdir] [-ext jpg|png|webp] [-throttle] [-frames n] [-metrics :9090]", filepath.Base(os.Args[0]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Fatalw("focus overlay failed", "error", err)
	}
}

// loadWithOverrides reads the config file and re-applies every flag that was
// set explicitly on the command line
func loadWithOverrides(path string, flagged *config.Config) (*config.Config, error) {
	fileCfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			fileCfg.Detector.Backend = flagged.Detector.Backend
		case "url":
			fileCfg.Detector.URL = flagged.Detector.URL
		case "model":
			fileCfg.Detector.Model = flagged.Detector.Model
		case "minconf":
			fileCfg.Detector.MinConfidence = flagged.Detector.MinConfidence
		case "sendfmt":
			fileCfg.Detector.SendFormat = flagged.Detector.SendFormat
		case "sendsize":
			fileCfg.Detector.SendSize = flagged.Detector.SendSize
		case "sendq":
			fileCfg.Detector.SendQuality = flagged.Detector.SendQuality
		case "threshold":
			fileCfg.Focus.Threshold = flagged.Focus.Threshold
		case "throttle":
			fileCfg.Loop.Throttled = flagged.Loop.Throttled
		case "pacing":
			fileCfg.Loop.PacingMs = flagged.Loop.PacingMs
		case "repeat":
			fileCfg.Loop.Repeat = flagged.Loop.Repeat
		case "frames":
			fileCfg.Loop.MaxFrames = flagged.Loop.MaxFrames
		case "out":
			fileCfg.Output.Dir = flagged.Output.Dir
		case "ext":
			fileCfg.Output.Format = flagged.Output.Format
		case "quality":
			fileCfg.Output.Quality = flagged.Output.Quality
		case "lossless":
			fileCfg.Output.Lossless = flagged.Output.Lossless
		case "report":
			fileCfg.Output.Report = flagged.Output.Report
		}
	})
	return fileCfg, nil
}

func newVisionClient(cfg *config.Config) (client.VisionClient, error) {
	httpClient := &http.Client{Timeout: cfg.DetectorTimeout()}
	url := cfg.Detector.URL

	switch cfg.Detector.Backend {
	case "ollama":
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClientWithHTTP(url, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		if url == "" {
			url = llamacpp.DefaultURL
		}
		c, err := llamacpp.NewClientWithHTTP(url, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Detector.Backend)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.SugaredLogger) error {
	outOpts := cfg.OutputOptions()
	if err := utils.EnsureDir(outOpts.Dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	frames, err := utils.ResolveFrames(opts.in)
	if err != nil {
		return err
	}

	visionClient, err := newVisionClient(cfg)
	if err != nil {
		return err
	}
	detector := detection.NewDetector(visionClient, detection.Config{
		Model:         cfg.Detector.Model,
		MinConfidence: cfg.Detector.MinConfidence,
		SendSize:      cfg.Detector.SendSize,
		SendQuality:   cfg.Detector.SendQuality,
		SendFormat:    cfg.Detector.SendFormat,
	})

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = detector.Load(loadCtx)
	cancel()
	if err != nil {
		return err
	}
	logger.Infow("detector loaded", "backend", cfg.Detector.Backend, "model", cfg.Detector.Model)

	processor := processing.NewProcessor()
	seq, err := source.NewSequence(frames, processor.LoadFrame, cfg.Loop.Repeat, logger.Named("source"))
	if err != nil {
		return err
	}
	if err := seq.Open(); err != nil {
		return err
	}

	if opts.testVision {
		reply, err := detector.TestVision(ctx, seq.Frame())
		if err != nil {
			return fmt.Errorf("vision test failed: %w", err)
		}
		logger.Infow("vision test", "reply", reply)
		return nil
	}

	palette, err := cfg.Palette()
	if err != nil {
		return err
	}
	annotator := focusoverlay.NewWithConfig(cfg.Focus.Threshold, cfg.RenderOptions(), palette)

	m := metrics.New()
	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr, m, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warnw("metrics server shutdown failed", "error", err)
			}
		}()
	}

	canvas := annotate.NewCanvas(1, 1)
	lc := loop.NewLifecycle()
	var report []cycleReport

	handleCycle := func(c loop.Cycle) {
		src := seq.Path()
		entry := cycleReport{
			Cycle:       c.Seq,
			Source:      src,
			DurationMs:  c.Duration.Milliseconds(),
			Annotations: c.Annotations,
		}
		if c.Err != nil {
			entry.Error = c.Err.Error()
		} else {
			prefix := fmt.Sprintf("%05d_", c.Seq)
			out := utils.GenerateOutputFilename(src, outOpts.Dir, prefix, cfg.Output.Suffix, outOpts.Format)
			if err := processor.SaveOverlay(c.Frame, canvas.Image(), out, outOpts); err != nil {
				logger.Warnw("save failed", "path", out, "error", err)
			} else {
				entry.Output = out
				logger.Infow("wrote", "path", out, "annotations", c.Drawn, "elapsed", c.Duration)
			}
		}
		report = append(report, entry)

		if (cfg.Loop.MaxFrames > 0 && c.Seq >= uint64(cfg.Loop.MaxFrames)) || seq.Exhausted() {
			lc.Stop()
		}
	}

	loopOpts := []loop.Option{
		loop.WithLogger(logger.Named("loop")),
		loop.WithMetrics(m),
		loop.WithPollInterval(cfg.PollInterval()),
		loop.WithPacing(cfg.Pacing()),
		loop.WithCycleHandler(handleCycle),
	}
	if cfg.Loop.Throttled {
		loopOpts = append(loopOpts, loop.WithThrottle())
	}

	l := annotator.NewLoop(seq, detector, canvas, loopOpts...)
	runErr := l.Run(ctx, lc)
	if errors.Is(runErr, context.Canceled) {
		logger.Infow("interrupted", "cycles", len(report))
		runErr = nil
	}

	if cfg.Output.Report {
		path := filepath.Join(outOpts.Dir, "report.json")
		if err := writeReport(path, report); err != nil {
			return err
		}
		logger.Infow("wrote report", "path", path, "cycles", len(report))
	}
	return runErr
}

func serveMetrics(addr string, m *metrics.Metrics, logger *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warnw("metrics server stopped", "error", err)
		}
	}()
	logger.Infow("serving metrics", "addr", addr)
	return srv
}

func writeReport(path string, report []cycleReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
