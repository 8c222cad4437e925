// Package main is the SAMScope CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"samscope/internal/cli"
	"samscope/internal/config"
	"samscope/internal/enrich"
	"samscope/internal/exporter"
	"samscope/internal/importer"
	"samscope/internal/models"
	"samscope/internal/server"
	"samscope/internal/storage"
	"samscope/internal/watcher"
	"samscope/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/samscope/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "samscope server" from the project dir uses the
// project's config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
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
	case "import":
		runImport()
	case "search":
		runSearch()
	case "enrich":
		runEnrich()
	case "export":
		runExport()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("samscope version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// filterFlags binds the shared filter flags onto fs and returns a builder
// that assembles the filter after parsing. The keyword comes from the
// remaining positional arguments.
type filterFlags struct {
	agencies   *string
	naics      *string
	psc        *string
	setAside   *string
	kind       *string
	postedFrom *string
	postedTo   *string
	minValue   *float64
	maxValue   *float64
}

func bindFilterFlags(fs *flag.FlagSet) *filterFlags {
	return &filterFlags{
		agencies:   fs.String("agency", "", "comma-separated list of awarding agencies"),
		naics:      fs.String("naics", "", "NAICS code"),
		psc:        fs.String("psc", "", "PSC code"),
		setAside:   fs.String("setaside", "", "set-aside category"),
		kind:       fs.String("type", "", "contract type"),
		postedFrom: fs.String("posted-from", "", "earliest posting date (YYYY-MM-DD, inclusive)"),
		postedTo:   fs.String("posted-to", "", "latest posting date (YYYY-MM-DD, inclusive)"),
		minValue:   fs.Float64("min-value", -1, "minimum award value in dollars"),
		maxValue:   fs.Float64("max-value", -1, "maximum award value in dollars"),
	}
}

func (ff *filterFlags) build(keyword string) *models.Filter {
	f := &models.Filter{
		Keyword:        keyword,
		Agencies:       splitList(*ff.agencies),
		NAICSCode:      *ff.naics,
		PSCCode:        *ff.psc,
		SetAside:       *ff.setAside,
		ContractType:   *ff.kind,
		DatePostedFrom: *ff.postedFrom,
		DatePostedTo:   *ff.postedTo,
	}
	if *ff.minValue >= 0 {
		v := *ff.minValue
		f.AwardValueMin = &v
	}
	if *ff.maxValue >= 0 {
		v := *ff.maxValue
		f.AwardValueMax = &v
	}
	return f
}

// splitList splits a comma-separated flag value into trimmed non-empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// buildKeyword joins all positional args with spaces so multi-word keywords
// work the same with or without shell quoting.
func buildKeyword(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the
// keyword to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument, so
// "samscope search cyber -limit 5" would otherwise leave -limit unparsed.
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

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
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

	var watchSvc *watcher.Watcher
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		imp := components.Importer
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc = watcher.NewWatcher(cfg.Watch.Directories, func(path string) {
			n, err := imp.ImportFile(context.Background(), path)
			if err != nil {
				logger.Warn("watch import failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("watch import complete", zap.String("path", path), zap.Int("imported", n))
		}, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Storage,
		components.Importer,
		components.Pipeline,
		watchSvc,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: samscope import [flags] <csv-file> [csv-file...]")
		os.Exit(1)
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	total := 0
	for _, path := range fs.Args() {
		n, err := components.Importer.ImportFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed for %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d contract(s) from %s\n", n, path)
		total += n
	}
	if fs.NArg() > 1 {
		fmt.Printf("Imported %d contract(s) total\n", total)
	}
}

func runSearch() {
	searchArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	limit := fs.Int("limit", 50, "number of results per page")
	offset := fs.Int("offset", 0, "number of results to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	ff := bindFilterFlags(fs)
	_ = fs.Parse(searchArgs)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	filter := ff.build(buildKeyword(fs.Args()))
	request := &models.SearchRequest{Filter: filter, Limit: *limit, Offset: *offset}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids SQLite lock
		// conflicts with the server's own connection).
		response, err = searchViaHTTP(*serverURL, request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()

		ctx := context.Background()
		contracts, err := components.Storage.Search(ctx, filter, *limit, *offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		total, err := components.Storage.Count(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
			os.Exit(1)
		}
		response = &models.SearchResponse{Contracts: contracts, Total: total, Limit: *limit, Offset: *offset}
	}

	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runEnrich() {
	enrichArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = run the pipeline in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	ff := bindFilterFlags(fs)
	_ = fs.Parse(enrichArgs)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	filter := ff.build(buildKeyword(fs.Args()))

	var response *models.EnrichedResponse
	if *serverURL != "" {
		response, err = enrichViaHTTP(*serverURL, &models.SearchRequest{Filter: filter})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Enriched search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()

		if components.Pipeline == nil {
			fmt.Fprintln(os.Stderr, "Enrichment not configured: set the model API key")
			os.Exit(1)
		}
		result := <-components.Pipeline.Run(context.Background(), filter)
		if result.Err != nil {
			fmt.Fprintf(os.Stderr, "Enriched search failed: %v\n", result.Err)
			os.Exit(1)
		}
		response = &result.EnrichedResponse
	}

	if err := cli.WriteEnrichedResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runExport() {
	exportArgs := argsReorder(os.Args[2:])

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	formatName := fs.String("format", "csv", "export format: csv, json, or xlsx")
	outPath := fs.String("out", "", "output file (default: stdout)")
	ff := bindFilterFlags(fs)
	_ = fs.Parse(exportArgs)

	format, err := exporter.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	filter := ff.build(buildKeyword(fs.Args()))

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ctx := context.Background()
	total, err := components.Storage.Count(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(1)
	}
	contracts, err := components.Storage.Search(ctx, filter, total, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outPath, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	if err := exporter.Export(out, format, contracts); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if *outPath != "" {
		fmt.Printf("Exported %d contract(s) to %s\n", len(contracts), *outPath)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: samscope delete [flags] <notice-id> [notice-id...]")
		os.Exit(1)
	}

	components, logger := mustInitialize(*configPath)
	defer components.Close()
	defer logger.Sync()

	ids := fs.Args()
	if err := components.Storage.BulkDelete(context.Background(), ids); err != nil {
		fmt.Fprintf(os.Stderr, "Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d contract(s)\n", len(ids))
}

// statusResponse is the shape of the GET /api/v1/status response.
type statusResponse struct {
	Contracts      int      `json:"contracts"`
	DiskUsageBytes int64    `json:"disk_usage_bytes"`
	WatchDirs      []string `json:"watch_directories,omitempty"`
	Config         struct {
		DatabasePath string `json:"database_path"`
		Model        string `json:"model"`
		PageSize     int    `json:"page_size"`
	} `json:"config"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		components, logger := mustInitialize(*configPath)
		defer components.Close()
		defer logger.Sync()

		total, err := components.Storage.Count(context.Background(), nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
			os.Exit(1)
		}
		status.Contracts = total
		status.DiskUsageBytes = storage.DiskUsageBytes(cfg.Storage.DatabasePath)
		status.Config.DatabasePath = cfg.Storage.DatabasePath
		status.Config.Model = cfg.Model.Model
		status.Config.PageSize = cfg.Search.PageSize
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("contracts:         %d\n", status.Contracts)
		fmt.Printf("disk_usage_bytes:  %d\n", status.DiskUsageBytes)
		fmt.Println()
		fmt.Println("# configuration")
		fmt.Printf("database_path:     %s\n", status.Config.DatabasePath)
		fmt.Printf("model:             %s\n", status.Config.Model)
		fmt.Printf("page_size:         %d\n", status.Config.PageSize)
		for _, d := range status.WatchDirs {
			fmt.Printf("watch_directory:   %s\n", d)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, request *models.SearchRequest) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := postViaHTTP(serverURL+"/api/v1/search", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func enrichViaHTTP(serverURL string, request *models.SearchRequest) (*models.EnrichedResponse, error) {
	var response models.EnrichedResponse
	if err := postViaHTTP(serverURL+"/api/v1/search/enriched", request, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func postViaHTTP(url string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Importer *importer.Importer
	Pipeline *enrich.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// mustInitialize loads config, builds a logger, and initializes components,
// exiting on any failure. Used by the direct-storage subcommands.
func mustInitialize(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	storeOpts := []storage.Option{}
	if debug {
		storeOpts = append(storeOpts, storage.WithLogger(logger))
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	impOpts := []importer.Option{}
	if debug {
		impOpts = append(impOpts, importer.WithLogger(logger))
	}
	imp := importer.NewImporter(store, impOpts...)

	var pipeline *enrich.Pipeline
	if apiKey := cfg.Model.APIKey(); apiKey != "" {
		client := enrich.NewClient(enrich.ClientConfig{
			APIKey:  apiKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Model,
			Logger:  logger,
		})
		enricher := enrich.NewEnricher(client, enrich.Limits{
			AnalyzeRecords: cfg.Search.AnalyzeRecords,
			SummaryRecords: cfg.Search.SummaryRecords,
			EntityRecords:  cfg.Search.EntityRecords,
			EnhanceTokens:  cfg.Model.EnhanceTokens,
			AnalyzeTokens:  cfg.Model.AnalyzeTokens,
			SummaryTokens:  cfg.Model.SummaryTokens,
			EntityTokens:   cfg.Model.EntityTokens,
		}, enrich.WithLogger(logger))
		pipeline = enrich.NewPipeline(enricher, store, cfg.Search.PipelineLimit,
			enrich.WithPipelineLogger(logger))
	} else {
		logger.Info("enrichment disabled: model API key not set",
			zap.String("env", cfg.Model.APIKeyEnv))
	}

	return &Components{
		Storage:  store,
		Importer: imp,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`samscope - Local contract listing filter and analyzer

Usage:
  samscope server [flags]             Start the HTTP server
  samscope import [flags] <csv>...    Import SAM.gov CSV export files
  samscope search [flags] [keyword]   Search stored contracts
  samscope enrich [flags] [keyword]   Search with model-backed analysis
  samscope export [flags] [keyword]   Export matching contracts
  samscope delete [flags] <id>...     Delete contracts by notice id
  samscope status [flags]             Show store status
  samscope version                    Show version
  samscope help                       Show this help

Filter Flags (search, enrich, export):
  --agency string       Comma-separated list of awarding agencies
  --naics string        NAICS code
  --psc string          PSC code
  --setaside string     Set-aside category
  --type string         Contract type
  --posted-from string  Earliest posting date (YYYY-MM-DD)
  --posted-to string    Latest posting date (YYYY-MM-DD)
  --min-value float     Minimum award value in dollars
  --max-value float     Maximum award value in dollars

Server Flags:
  --config string    Config file path (default: /usr/local/etc/samscope/config.yaml)
  --debug            Enable debug logging

Search/Enrich Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty
                     (--server "") for direct storage when no server runs.
  --limit int        Results per page (search only; default: 50)
  --offset int       Results to skip (search only)
  --output string    Output format: text or json

Export Flags:
  --format string    Export format: csv, json, or xlsx (default: csv)
  --out string       Output file (default: stdout)

Examples:
  samscope server
  samscope import contracts-2024.csv
  samscope search cyber security --agency "DEPT OF DEFENSE" --limit 20
  samscope search --posted-from 2024-01-01 --min-value 100000
  samscope enrich satellite communications --output json
  samscope export --format xlsx --out matches.xlsx radar
  samscope delete N-12345
  samscope status --output json`)
}
