// Package main is the foundermatch CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/foundermatch/internal/config"
	"github.com/hyperjump/foundermatch/internal/importer"
	"github.com/hyperjump/foundermatch/internal/keyword"
	"github.com/hyperjump/foundermatch/internal/metrics"
	"github.com/hyperjump/foundermatch/internal/recommend"
	"github.com/hyperjump/foundermatch/internal/server"
	"github.com/hyperjump/foundermatch/internal/storage"
	"github.com/hyperjump/foundermatch/internal/watcher"
	"github.com/hyperjump/foundermatch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/foundermatch/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory is preferred if it exists, so running from a project
// directory picks up the project's config; with neither file present the
// built-in defaults are used. Returns the config and the path that was actually
// loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(local); statErr == nil {
				cfg, loadErr := config.Load(local)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, local, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "recommend":
		runRecommend()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("foundermatch version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file imports, reloads, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	var watchSvc *watcher.Watcher
	if len(cfg.Corpus.Directories) > 0 {
		watchSvc = newCorpusWatcher(cfg, components, logger, debugMode)
		if cfg.Corpus.Watch {
			if err := watchSvc.Start(watchCtx); err != nil {
				logger.Fatal("Failed to start watcher", zap.Error(err))
			}
		}
		syncCorpusFiles(watchCtx, watchSvc.ExistingFiles(), components.Importer, cfg.Corpus.Extensions, logger)
	}

	if _, err := components.Service.Reload(context.Background()); err != nil {
		// queries answer 503 until a later reload succeeds
		logger.Warn("initial reload failed", zap.Error(err))
	}

	var watchInfo server.WatchService
	if watchSvc != nil && cfg.Corpus.Watch {
		watchInfo = watchSvc
	}
	srv := server.NewServer(components.Service, components.Importer, cfg, logger, watchInfo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		watchCancel()
		if watchSvc != nil {
			watchSvc.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("Server failed", zap.Error(err))
	}
}

// newCorpusWatcher wires file events to the importer and reloads the service
// once a burst of events has settled.
func newCorpusWatcher(cfg *config.Config, c *Components, logger *zap.Logger, debug bool) *watcher.Watcher {
	exts := cfg.Corpus.Extensions
	opts := []watcher.Option{watcher.WithRecursive(cfg.Corpus.RecursiveOrDefault())}
	if debug {
		opts = append(opts, watcher.WithLogger(logger))
	}
	return watcher.New(cfg.Corpus.Directories, exts, watcher.Handler{
		OnChange: func(path string) {
			_, err := c.Importer.ImportFile(context.Background(), path, exts)
			metrics.RecordFileEvent("import", err)
			if err != nil {
				logger.Warn("watch import file failed", zap.String("path", path), zap.Error(err))
			}
		},
		OnRemove: func(path string) {
			_, err := c.Importer.RemoveFile(context.Background(), path)
			metrics.RecordFileEvent("remove", err)
			if err != nil {
				logger.Warn("watch remove file failed", zap.String("path", path), zap.Error(err))
			}
		},
		OnSettled: func() {
			if _, err := c.Service.Reload(context.Background()); err != nil {
				logger.Warn("reload after corpus change failed", zap.Error(err))
			}
		},
	}, opts...)
}

// syncCorpusFiles imports every file found under the corpus directories at startup.
func syncCorpusFiles(ctx context.Context, files []string, imp *importer.Importer, exts []string, logger *zap.Logger) {
	imported := 0
	for _, path := range files {
		n, err := imp.ImportFile(ctx, path, exts)
		metrics.RecordFileEvent("import", err)
		if err != nil {
			logger.Warn("corpus file import failed", zap.String("path", path), zap.Error(err))
			continue
		}
		imported += n
	}
	logger.Info("corpus directories synced", zap.Int("files", len(files)), zap.Int("startups", imported))
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex keyword.KeywordIndex
	Engine       *recommend.Engine
	Service      *recommend.Service
	Importer     *importer.Importer
}

// Close releases storage and index handles.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	debugLogger := zap.NewNop()
	if debug && logger != nil {
		debugLogger = logger
	}
	engine := recommend.NewEngine(recommend.WithLogger(utils.NamedOrNop(debugLogger, "engine")))
	svc := recommend.NewService(engine, store, keywordIndex, &cfg.Recommend,
		recommend.WithFallback(cfg.Corpus.UseFallbackOrDefault()),
		recommend.WithServiceLogger(utils.NamedOrNop(logger, "service")))

	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Engine:       engine,
		Service:      svc,
		Importer:     importer.New(store, importer.WithLogger(utils.NamedOrNop(debugLogger, "importer"))),
	}, nil
}

// commandLogger returns the logger for one-shot commands: quiet unless debug.
func commandLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	return utils.NewLogger(true)
}

// argsReorder moves any flags (and their values) that appear after positional
// arguments to the front so flag.Parse sees them. Go's flag package stops at
// the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuery joins positional args with spaces so multi-word queries work with
// or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, "; ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`foundermatch - Startup search and recommendations for founders

Usage:
  foundermatch server [flags]              Start the HTTP server
  foundermatch search [flags] <query>      Search startups
  foundermatch recommend [flags]           Recommend startups for a user or profile
  foundermatch import [flags] <path>       Import a corpus file or directory
  foundermatch status [flags]              Show engine/storage status
  foundermatch version                     Show version
  foundermatch help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/foundermatch/config.yaml,
                     or ./config.yaml when present)
  --server string    Server URL, e.g. http://localhost:8080. Empty uses direct storage.
  --output string    Output format: text, compact or json (default: text)

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --industry string  Only startups in this industry (exact match)
  --limit int        Number of results (default from config)
  --fuzzy            Correct misspelled terms before searching
  --user string      Record the query in this user's history
  --keyword          BM25 keyword search instead of TF-IDF ranking
  --hybrid           Fuse BM25 and TF-IDF scores
  --keyword-weight   BM25 weight for --hybrid (default 0.5)
  --semantic-weight  TF-IDF weight for --hybrid (default 0.5)

Recommend Flags:
  --user string        Use this user's stored search history
  --history string     A past query (repeatable)
  --skills string      Comma-separated skills
  --interests string   Comma-separated interests
  --role string        Role, e.g. CTO
  --industries string  Comma-separated preferred industries
  --tags string        Comma-separated preferred tags
  --limit int          Number of results (default from config)

Examples:
  foundermatch server
  foundermatch search smart farming sensors
  foundermatch search --industry Healthcare --limit 3 "remote patient monitoring"
  foundermatch search --server http://localhost:8080 --output json telemedicine
  foundermatch recommend --user u42
  foundermatch recommend --skills "python, iot" --role CTO
  foundermatch import ./data/startups.yaml
  foundermatch status --output json`)
}
