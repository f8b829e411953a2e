// Command tikgrab downloads the media behind a share link: videos, photo
// sets, or the embedded sound track.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iconidentify/tikgrab/internal/config"
	"github.com/iconidentify/tikgrab/internal/downloader"
	"github.com/iconidentify/tikgrab/internal/repository"
	"github.com/iconidentify/tikgrab/internal/resolver"
	"github.com/iconidentify/tikgrab/internal/service"
	"github.com/iconidentify/tikgrab/internal/session"
	"github.com/iconidentify/tikgrab/internal/worker"
	"github.com/iconidentify/tikgrab/pkg/ffmpeg"
	"github.com/iconidentify/tikgrab/pkg/tikwm"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	hd := flag.Bool("hd", false, "Prefer the HD encode when available")
	dir := flag.String("dir", "", "Destination directory (default from config)")
	name := flag.String("name", "", "Output filename override")
	sound := flag.Bool("sound", false, "Download the embedded sound track instead of the media")
	search := flag.String("search", "", "Search instead of downloading; value is the query")
	method := flag.String("method", "keyword", "Search method: keyword or hashtag")
	count := flag.Int("count", 10, "Search result count")
	cursor := flag.Int("cursor", 0, "Search pagination cursor")
	verbose := flag.Bool("v", false, "Verbose logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tikgrab %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Storage.BasePath = *dir
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, options{
		text:   strings.Join(flag.Args(), " "),
		hd:     *hd,
		name:   *name,
		sound:  *sound,
		search: *search,
		method: *method,
		count:  *count,
		cursor: *cursor,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "tikgrab:", err)
		os.Exit(1)
	}
}

type options struct {
	text   string
	hd     bool
	name   string
	sound  bool
	search string
	method string
	count  int
	cursor int
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts options) error {
	client := tikwm.NewClient(tikwm.Config{
		BaseURL:       cfg.Tikwm.BaseURL,
		UserAgent:     cfg.Tikwm.UserAgent,
		Timeout:       cfg.Tikwm.Timeout,
		FetchAttempts: cfg.Tikwm.FetchAttempts,
		FetchDelay:    cfg.Tikwm.FetchDelay,
	}, logger)

	dl := downloader.NewHTTPDownloader(downloader.Config{
		Timeout:               cfg.Download.Timeout,
		ResponseHeaderTimeout: cfg.Download.ResponseHeaderTimeout,
		UserAgent:             cfg.Download.UserAgent,
	})
	dl.SetLogger(logger)

	var history repository.HistoryRepository
	if cfg.Storage.HistoryPath != "" {
		repo, err := repository.NewSQLiteHistory(cfg.Storage.HistoryPath, logger)
		if err != nil {
			logger.Warn("download history unavailable", "error", err)
		} else {
			history = repo
			defer repo.Close()
		}
	}

	svc := service.NewMediaService(
		session.New(client, logger),
		resolver.New(resolver.Config{UserAgent: cfg.Tikwm.UserAgent}, logger),
		dl,
		ffmpeg.NewProbe(),
		worker.NewPool(cfg.Worker.ImageWorkers, logger),
		history,
		client,
		service.Config{BaseDir: cfg.Storage.BasePath},
		logger,
	)
	defer svc.Close()

	if opts.search != "" {
		results, err := svc.Search(ctx, tikwm.SearchMethod(opts.method), opts.search, opts.count, opts.cursor)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if opts.text == "" {
		return fmt.Errorf("nothing to do: pass a link or use -search")
	}

	if opts.sound {
		result, err := svc.DownloadSound(ctx, opts.text, opts.name)
		if err != nil {
			return err
		}
		fmt.Println(result.Media[0])
		return nil
	}

	result, err := svc.Download(ctx, opts.text, service.DownloadOptions{
		Filename: opts.name,
		HD:       opts.hd,
	})
	if err != nil {
		if result != nil && len(result.Failed) > 0 {
			// Partial photo sets still produced files; report both.
			for _, path := range result.Media {
				if path != "" {
					fmt.Println(path)
				}
			}
		}
		return err
	}

	for _, path := range result.Media {
		fmt.Println(path)
	}
	if result.Width > 0 {
		logger.Info("video dimensions", "width", result.Width, "height", result.Height)
	}
	return nil
}
