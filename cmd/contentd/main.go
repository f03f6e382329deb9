// Copyright 2025 Veridex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/veridex/contentd"
	"github.com/veridex/contentd/config"
	"github.com/veridex/contentd/core"
	"github.com/veridex/contentd/reindex"
	"github.com/veridex/contentd/search"
	"github.com/veridex/contentd/server"
)

func main() {
	app := &cli.App{
		Name:  "contentd",
		Usage: "Content ingestion and retrieval service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
			},
			{
				Name:   "index",
				Usage:  "Index a single source synchronously",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content-base",
						Usage:    "Content base UUID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "File UUID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Original filename (required for file sources)",
					},
					&cli.StringFlag{
						Name:     "extension",
						Usage:    "Source extension (txt, md, pdf, doc, docx, xls, xlsx, urls)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Object key, URL, or raw text depending on kind",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Source kind (file, url, text)",
						Value: "file",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a content base",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content-base",
						Usage:    "Content base UUID",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Similarity threshold for this query (defaults to the configured value)",
						Value: -1,
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Restrict the search to one file",
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Delete every chunk and the full text of a file",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content-base",
						Usage:    "Content base UUID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "File UUID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Only delete chunks carrying this filename",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every chunk of a content base",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content-base",
						Usage:    "Content base UUID",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to re-embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	// Missing .env files are fine; the environment may already be set.
	_ = godotenv.Load()
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadService(c *cli.Context) (*contentd.Service, *config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	svc, err := contentd.NewService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cfg, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	orch, err := svc.NewOrchestrator(ctx)
	if err != nil {
		return err
	}
	defer orch.Release()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(orch, searcher, config.Secret(cfg.Server.AuthTokenEnv), slog.Default())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// stderrReporter prints job outcomes instead of calling the platform.
// Synchronous CLI runs report their result on the terminal.
type stderrReporter struct{}

func (stderrReporter) Report(ctx context.Context, job core.IndexJob, success bool) error {
	if success {
		fmt.Fprintf(os.Stderr, "Indexed %s (task %s)\n", job.FileID, job.TaskID)
	} else {
		fmt.Fprintf(os.Stderr, "Indexing of %s failed (task %s)\n", job.FileID, job.TaskID)
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	ctx := context.Background()

	svc, _, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	orch, err := svc.NewOrchestrator(ctx, contentd.WithReporter(stderrReporter{}))
	if err != nil {
		return err
	}
	defer orch.Release()

	kind, err := parseKind(c.String("kind"))
	if err != nil {
		return err
	}

	job := core.IndexJob{
		TaskID:        fmt.Sprintf("cli-%d", time.Now().Unix()),
		ContentBaseID: c.String("content-base"),
		FileID:        c.String("file"),
		Filename:      c.String("filename"),
		Extension:     c.String("extension"),
		Source:        c.String("source"),
		Kind:          kind,
	}

	if err := orch.Process(ctx, job); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	svc, _, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}

	var opts []search.QueryOption
	if threshold := c.Float64("threshold"); threshold >= 0 {
		opts = append(opts, search.WithQueryThreshold(float32(threshold)))
	}
	if filename := c.String("filename"); filename != "" {
		opts = append(opts, search.WithFilename(filename))
	}

	results, err := searcher.Search(context.Background(), c.String("content-base"), query, opts...)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for i, res := range results {
		fmt.Printf("%d. [%0.3f] %s (%s)\n", i+1, res.Score, res.Filename, res.FileID)
		fmt.Println(res.FullPage)
		fmt.Println()
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	svc, _, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}

	contentBase := c.String("content-base")
	file := c.String("file")
	if err := searcher.Delete(context.Background(), contentBase, c.String("filename"), file); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Deleted file %s from content base %s\n", file, contentBase)
	return nil
}

func reindexCommand(c *cli.Context) error {
	svc, _, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := svc.NewReindexer(reindexConfig, os.Stderr)
	if err != nil {
		return err
	}

	if err := reindexer.Run(context.Background(), c.String("content-base")); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func parseKind(kind string) (core.SourceKind, error) {
	switch kind {
	case "file":
		return core.SourceKindFile, nil
	case "url":
		return core.SourceKindURL, nil
	case "text":
		return core.SourceKindText, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q: must be one of file, url, text", kind)
	}
}
