package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rtm0/eddytracks/internal/config"
	"github.com/rtm0/eddytracks/internal/eddy"
	"github.com/rtm0/eddytracks/internal/geo"
	"github.com/rtm0/eddytracks/internal/stats"
	"github.com/rtm0/eddytracks/internal/vm"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(2)
	}
	if err := run(logger, cfg); err != nil {
		logger.Error("Processing failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig builds the configuration from the defaults, the optional YAML
// file named by -config and the flags set explicitly on the command line, in
// that order.
func loadConfig(args []string, output io.Writer) (config.Config, error) {
	def := config.Default()
	fs := flag.NewFlagSet("eddytracks", flag.ContinueOnError)
	fs.SetOutput(output)
	cfgFile := fs.String("config", "", "path to a YAML configuration file")
	file := fs.String("file", def.File, "path to an eddy tracks file in NetCDF format")
	fill := fs.String("fill", def.Fill, "gap filling mode: midpoint, linear, begin or end")
	minLifetime := fs.Int("minLifetime", def.MinLifetime, "minimum lifetime of classified eddies, in timesteps")
	concurrency := fs.Int("concurrency", def.Concurrency, "number of tracks processed concurrently")
	recsPerInsert := fs.Int("recsPerInsert", def.VM.RecsPerInsert, "number of track summaries sent to VM in one batch")
	vmInsertURL := fs.String("vmInsertUrl", def.VM.InsertURL, "Victoria Metrics insert API URL, e.g. http://localhost:8428/write. Nothing is exported if empty")
	metricPrefix := fs.String("metricPrefix", def.VM.MetricPrefix, "prefix of the exported metric names")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := def
	if *cfgFile != "" {
		var err error
		if cfg, err = config.Load(*cfgFile); err != nil {
			return config.Config{}, fmt.Errorf("loading %s: %w", *cfgFile, err)
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.File = *file
		case "fill":
			cfg.Fill = *fill
		case "minLifetime":
			cfg.MinLifetime = *minLifetime
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "recsPerInsert":
			cfg.VM.RecsPerInsert = *recsPerInsert
		case "vmInsertUrl":
			cfg.VM.InsertURL = *vmInsertURL
		case "metricPrefix":
			cfg.VM.MetricPrefix = *metricPrefix
		}
	})
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(logger *slog.Logger, cfg config.Config) error {
	mode, err := geo.ParseMode(cfg.Fill)
	if err != nil {
		return err
	}

	var vmCli *vm.Client
	if cfg.VM.InsertURL != "" {
		vmCli, err = vm.NewClient(logger, cfg.VM.InsertURL, cfg.Concurrency, cfg.VM.MetricPrefix)
		if err != nil {
			return fmt.Errorf("could not create new VM client: %w", err)
		}
	}

	s, err := eddy.OpenScanner(cfg.File, cfg.EddyLayout())
	if err != nil {
		return fmt.Errorf("could not create an eddy track scanner: %w", err)
	}
	defer s.Close()
	logger.Info("Eddy tracks summary", s.Summary()...)

	start := time.Now()
	tracks := make([]eddy.Track, 0, s.TrackCount())
	for s.Scan() {
		t, _ := s.Track()
		tracks = append(tracks, t)
	}
	if err := s.Err(); err != nil {
		return err
	}
	logger.Info("Loaded tracks", "count", len(tracks), "in", time.Since(start).Round(time.Millisecond))

	cyclonic, anticyclonic := eddy.Classify(tracks, cfg.MinLifetime)
	logger.Info("Classified tracks",
		"minLifetime", cfg.MinLifetime,
		"cyclonic", len(cyclonic),
		"anticyclonic", len(anticyclonic),
		"dropped", len(tracks)-len(cyclonic)-len(anticyclonic))

	var all []eddy.Summary
	for _, group := range []struct {
		name   string
		tracks []eddy.Track
	}{
		{"cyclonic", cyclonic},
		{"anticyclonic", anticyclonic},
	} {
		sums, err := summarize(group.tracks, mode, cfg.Concurrency)
		if err != nil {
			return err
		}
		logger.Info("Eddy statistics", append([]any{"group", group.name, "fill", mode}, stats.Describe(sums).LogAttrs()...)...)
		all = append(all, sums...)
	}

	if vmCli == nil {
		return nil
	}
	if failed := export(logger, vmCli, all, cfg.VM.RecsPerInsert, cfg.Concurrency); failed > 0 {
		return fmt.Errorf("%d of the batches could not be exported", failed)
	}
	return nil
}

// summarize gap-fills and measures tracks on concurrency goroutines. The
// summaries keep the order of tracks.
func summarize(tracks []eddy.Track, mode geo.Mode, concurrency int) ([]eddy.Summary, error) {
	sums := make([]eddy.Summary, len(tracks))
	errs := make([]error, len(tracks))
	idxCh := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			for i := range idxCh {
				sums[i], errs[i] = eddy.Summarize(tracks[i], mode)
			}
			wg.Done()
		}()
	}
	for i := range tracks {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sums, nil
}

type inserter interface {
	Insert([]eddy.Summary) error
}

// export inserts sums in batches of at most recsPerInsert summaries and
// returns the number of batches that failed.
func export(logger *slog.Logger, cli inserter, sums []eddy.Summary, recsPerInsert, concurrency int) int {
	batchCh := make(chan []eddy.Summary)
	progressCh := make(chan error)
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			for batch := range batchCh {
				progressCh <- cli.Insert(batch)
			}
			wg.Done()
		}()
	}
	go func() {
		n := len(sums)
		for i := 0; i < n; i += recsPerInsert {
			batchCh <- sums[i:min(i+recsPerInsert, n)]
		}
		close(batchCh)
		wg.Wait()
		close(progressCh)
	}()

	var batches, failed int
	start := time.Now()
	for err := range progressCh {
		batches++
		if err != nil {
			failed++
			logger.Error("Could not insert track summaries", "err", err)
			continue
		}
		logger.Info("progress", "batches", batches, "in", time.Since(start).Round(time.Second))
	}
	return failed
}
