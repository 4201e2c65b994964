package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/alariczq/lectern/internal"
	"github.com/alariczq/lectern/internal/index"
	"github.com/alariczq/lectern/internal/loader"
	"github.com/alariczq/lectern/internal/mcpserver"
	"github.com/alariczq/lectern/internal/storage"
	pkgconfig "github.com/alariczq/lectern/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// check loads every document under the content directory and reports
// front matter problems without touching the index. Exits non-zero when
// any document fails to parse.
func check(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	l := loader.New(store, internal.ParseOptions(&cfg.Content)...)

	results, err := l.LoadAll("")
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	failed := loader.Failed(results)
	for _, res := range failed {
		fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
	}
	fmt.Printf("checked %d documents, %d failed\n", len(results), len(failed))

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d documents failed validation", len(failed), len(results))
	}
	return nil
}

// mcp runs the MCP server over stdio.
func mcp(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	l := loader.New(store, internal.ParseOptions(&cfg.Content)...)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	return mcpserver.New(store, db, l).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "lectern",
		Usage:  "Content service for Markdown blog posts with front matter, full-text search, and taxonomy",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "check",
				Usage:  "Validate front matter of every document and exit",
				Action: check,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: mcp,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
