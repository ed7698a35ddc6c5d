package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/foundermatch/internal/cli"
	"github.com/hyperjump/foundermatch/internal/importer"
	"github.com/hyperjump/foundermatch/internal/models"
	"github.com/hyperjump/foundermatch/internal/storage"
)

// commandEnv holds the flags shared by the one-shot commands.
type commandEnv struct {
	configPath string
	serverURL  string
	format     cli.OutputFormat
	debug      bool
}

func addCommonFlags(fs *flag.FlagSet) (configPath, serverURL, output *string, debug *bool) {
	configPath = fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL = fs.String("server", "", "server URL; empty uses direct storage")
	output = fs.String("output", "text", "output format: text, compact or json")
	debug = fs.Bool("debug", false, "enable debug logging")
	return
}

func newCommandEnv(configPath, serverURL, output string, debug bool) commandEnv {
	format, err := cli.ParseOutputFormat(output)
	if err != nil {
		fail("%v", err)
	}
	return commandEnv{configPath: configPath, serverURL: serverURL, format: format, debug: debug}
}

// openDirect loads config, opens storage and the keyword index, and reloads the
// engine from storage. The caller must Close the returned components.
func openDirect(env commandEnv) (*Components, error) {
	cfg, _, err := loadConfig(env.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := commandLogger(env.debug || cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	components, err := initializeComponents(cfg, logger, env.debug || cfg.Debug)
	if err != nil {
		return nil, err
	}
	if _, err := components.Service.Reload(context.Background()); err != nil {
		components.Close()
		return nil, err
	}
	return components, nil
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: foundermatch search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath, serverURL, output, debug := addCommonFlags(fs)
	industry := fs.String("industry", "", "only startups in this industry (exact, case-sensitive)")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	fuzzy := fs.Bool("fuzzy", false, "correct misspelled terms before searching")
	user := fs.String("user", "", "record the query in this user's search history")
	bm25 := fs.Bool("keyword", false, "BM25 keyword search over title, description, industry and tags")
	hybrid := fs.Bool("hybrid", false, "fuse BM25 and TF-IDF scores")
	keywordWeight := fs.Float64("keyword-weight", models.DefaultFusionWeight, "BM25 weight for --hybrid (0-1)")
	semanticWeight := fs.Float64("semantic-weight", models.DefaultFusionWeight, "TF-IDF weight for --hybrid (0-1)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	env := newCommandEnv(*configPath, *serverURL, *output, *debug)

	var err error
	switch {
	case *hybrid:
		err = hybridCommand(env, &models.HybridSearchRequest{
			Query:          query,
			Industry:       *industry,
			Limit:          *limit,
			KeywordWeight:  keywordWeight,
			SemanticWeight: semanticWeight,
		}, os.Stdout)
	case *bm25:
		err = keywordCommand(env, &models.KeywordSearchRequest{Query: query, Industry: *industry, Limit: *limit}, os.Stdout)
	default:
		err = searchCommand(env, &models.SearchRequest{
			Query:    query,
			Industry: *industry,
			Limit:    *limit,
			Fuzzy:    *fuzzy,
			UserID:   *user,
		}, os.Stdout)
	}
	if err != nil {
		fail("Search failed: %v", err)
	}
}

func searchCommand(env commandEnv, req *models.SearchRequest, w io.Writer) error {
	var (
		resp *models.SearchResponse
		err  error
	)
	if env.serverURL != "" {
		resp, err = newAPIClient(env.serverURL).Search(req)
	} else {
		var c *Components
		if c, err = openDirect(env); err != nil {
			return err
		}
		defer c.Close()
		resp, err = c.Service.Search(context.Background(), req)
	}
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(w, resp, env.format)
}

func keywordCommand(env commandEnv, req *models.KeywordSearchRequest, w io.Writer) error {
	var (
		resp *models.KeywordResponse
		err  error
	)
	if env.serverURL != "" {
		resp, err = newAPIClient(env.serverURL).KeywordSearch(req)
	} else {
		var c *Components
		if c, err = openDirect(env); err != nil {
			return err
		}
		defer c.Close()
		resp, err = c.Service.KeywordSearch(context.Background(), req)
	}
	if err != nil {
		return err
	}
	return cli.WriteKeywordResults(w, resp, env.format)
}

func hybridCommand(env commandEnv, req *models.HybridSearchRequest, w io.Writer) error {
	var (
		resp *models.HybridResponse
		err  error
	)
	if env.serverURL != "" {
		resp, err = newAPIClient(env.serverURL).HybridSearch(req)
	} else {
		var c *Components
		if c, err = openDirect(env); err != nil {
			return err
		}
		defer c.Close()
		resp, err = c.Service.HybridSearch(context.Background(), req)
	}
	if err != nil {
		return err
	}
	return cli.WriteHybridResults(w, resp, env.format)
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath, serverURL, output, debug := addCommonFlags(fs)
	user := fs.String("user", "", "use this user's stored search history")
	var history stringList
	fs.Var(&history, "history", "a past search query (repeatable)")
	skills := fs.String("skills", "", "comma-separated skills")
	interests := fs.String("interests", "", "comma-separated interests")
	role := fs.String("role", "", "role, e.g. CTO")
	industries := fs.String("industries", "", "comma-separated preferred industries")
	tags := fs.String("tags", "", "comma-separated preferred tags")
	limit := fs.Int("limit", 0, "number of results (0 = config default)")
	_ = fs.Parse(os.Args[2:])

	env := newCommandEnv(*configPath, *serverURL, *output, *debug)
	req := buildRecommendRequest(*user, history, *skills, *interests, *role, *industries, *tags, *limit)
	if err := recommendCommand(env, req, os.Stdout); err != nil {
		fail("Recommend failed: %v", err)
	}
}

// buildRecommendRequest assembles a request from recommend flags. A profile is
// attached only when some profile flag is set.
func buildRecommendRequest(user string, history []string, skills, interests, role, industries, tags string, limit int) *models.RecommendRequest {
	req := &models.RecommendRequest{UserID: user, Limit: limit}
	profile := &models.UserProfile{
		ID:        user,
		Skills:    splitList(skills),
		Interests: splitList(interests),
		Role:      role,
	}
	for _, q := range history {
		profile.SearchHistory.Queries = append(profile.SearchHistory.Queries, models.SearchQuery{Query: q})
	}
	if ind, tg := splitList(industries), splitList(tags); len(ind) > 0 || len(tg) > 0 {
		profile.Preferences = &models.Preferences{Industries: ind, Tags: tg}
	}
	if len(profile.SearchHistory.Queries) > 0 || len(profile.Skills) > 0 || len(profile.Interests) > 0 ||
		profile.Role != "" || profile.Preferences != nil {
		req.Profile = profile
	}
	return req
}

func recommendCommand(env commandEnv, req *models.RecommendRequest, w io.Writer) error {
	var (
		resp *models.RecommendResponse
		err  error
	)
	if env.serverURL != "" {
		resp, err = newAPIClient(env.serverURL).Recommend(req)
	} else {
		var c *Components
		if c, err = openDirect(env); err != nil {
			return err
		}
		defer c.Close()
		resp, err = c.Service.Recommend(context.Background(), req)
	}
	if err != nil {
		return err
	}
	return cli.WriteRecommendations(w, resp, env.format)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL; empty writes to storage directly")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: foundermatch import [flags] <file-or-directory>")
		os.Exit(1)
	}
	env := commandEnv{configPath: *configPath, serverURL: *serverURL, debug: *debug}
	if err := importCommand(env, fs.Arg(0), os.Stdout); err != nil {
		fail("Import failed: %v", err)
	}
}

// importCommand imports path through the server, or straight into storage. A
// direct import does not touch the keyword index; the server picks the new
// startups up on its next reload.
func importCommand(env commandEnv, path string, w io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if env.serverURL != "" {
		res, err := newAPIClient(env.serverURL).Import(abs)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Imported %d startup(s) from %d file(s); engine serves %d startups\n",
			res.Startups, res.Files, res.Engine.Startups)
		return nil
	}

	cfg, _, err := loadConfig(env.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := commandLogger(env.debug || cfg.Debug)
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	imp := importer.New(store, importer.WithLogger(logger))

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if info.IsDir() {
		files, n, err := imp.ImportDirectory(ctx, abs, cfg.Corpus.Extensions)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Imported %d startup(s) from %d file(s) in %s\n", n, files, abs)
		return nil
	}
	// a single file is imported whatever the configured extensions
	n, err := imp.ImportFile(ctx, abs, nil)
	if err != nil {
		return err
	}
	logger.Debug("import done", zap.String("path", abs), zap.Int("startups", n))
	fmt.Fprintf(w, "Imported %d startup(s) from %s\n", n, abs)
	return nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath, serverURL, output, debug := addCommonFlags(fs)
	_ = fs.Parse(os.Args[2:])

	env := newCommandEnv(*configPath, *serverURL, *output, *debug)
	if err := statusCommand(env, os.Stdout); err != nil {
		fail("Status failed: %v", err)
	}
}

func statusCommand(env commandEnv, w io.Writer) error {
	var report *cli.StatusReport
	if env.serverURL != "" {
		var err error
		if report, err = newAPIClient(env.serverURL).Status(); err != nil {
			return err
		}
	} else {
		c, err := openDirect(env)
		if err != nil {
			return err
		}
		defer c.Close()
		status, err := c.Service.Status(context.Background())
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig(env.configPath)
		if err != nil {
			return err
		}
		report = &cli.StatusReport{Engine: status, DatabasePath: cfg.Storage.DatabasePath}
		if n, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
			report.DiskUsageBytes = n
		}
	}
	return cli.WriteStatus(w, report, env.format)
}
