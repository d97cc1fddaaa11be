package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notefiler/internal"
	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/models"
	"github.com/starford/notefiler/internal/storage"
	pkgconfig "github.com/starford/notefiler/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadIfExists(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

// withComponents loads the config, builds the shared components and runs fn.
func withComponents(ctx context.Context, cmd *cli.Command, fn func(*internal.Components) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)
	slog.SetDefault(logger)

	c, err := internal.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// readSource returns the value of flag, reading stdin when it is "-" and a
// file when it starts with "@".
func readSource(cmd *cli.Command, flag string) (string, error) {
	v := cmd.String(flag)
	switch {
	case v == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read %s from stdin: %w", flag, err)
		}
		return string(data), nil
	case strings.HasPrefix(v, "@"):
		data, err := os.ReadFile(strings.TrimPrefix(v, "@"))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", flag, err)
		}
		return string(data), nil
	default:
		return v, nil
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func storeNote(ctx context.Context, cmd *cli.Command) error {
	input, err := readSource(cmd, "input")
	if err != nil {
		return err
	}
	response, err := readSource(cmd, "response")
	if err != nil {
		return err
	}
	var override *models.Classification
	if p, s, n := cmd.String("primary"), cmd.String("secondary"), cmd.String("note-type"); p != "" || s != "" || n != "" {
		override = &models.Classification{PrimaryCategory: p, SecondaryCategory: s, DisplayName: n}
	}
	return withComponents(ctx, cmd, func(c *internal.Components) error {
		res, err := c.Service().StoreNote(ctx, input, response, override)
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

func captureNote(ctx context.Context, cmd *cli.Command) error {
	input, err := readSource(cmd, "input")
	if err != nil {
		return err
	}
	return withComponents(ctx, cmd, func(c *internal.Components) error {
		res, err := c.Service().Capture(ctx, input)
		if err != nil {
			return err
		}
		return printJSON(res)
	})
}

func auditIndexes(ctx context.Context, cmd *cli.Command) error {
	return withComponents(ctx, cmd, func(c *internal.Components) error {
		report, fixed, err := c.Service().Audit(ctx, cmd.Bool("repair"))
		if err != nil {
			return err
		}
		for _, is := range report.Issues {
			fmt.Println(is.String())
		}
		fmt.Printf("%d indexes, %d notes, %d issues, %d fixed\n", report.Indexes, report.Notes, len(report.Issues), fixed)
		if !report.Consistent() {
			return cli.Exit("", 2)
		}
		return nil
	})
}

func printPrompt(ctx context.Context, cmd *cli.Command) error {
	return withComponents(ctx, cmd, func(c *internal.Components) error {
		fmt.Println(c.Service().Prompt())
		return nil
	})
}

func setRoot(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return cli.Exit("usage: set-root <dir>", 1)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if _, err := storage.NewFS(abs); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := metastore.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Set(ctx, metastore.KeyStorageRoot, abs); err != nil {
		return err
	}
	if cfg.Storage.Root != "" {
		slog.Warn("storage.root in the config file takes precedence", slog.String("config_root", cfg.Storage.Root))
	}
	fmt.Println(abs)
	return nil
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Note text, \"-\" for stdin or @file",
		Required: true,
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "notefiler",
		Usage:  "Files LLM-classified notes into a Markdown category tree with per-folder indexes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and SSE event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: serveMCP,
			},
			{
				Name:  "store",
				Usage: "File a note using a model response or an explicit classification",
				Flags: []cli.Flag{
					inputFlag(),
					&cli.StringFlag{Name: "response", Aliases: []string{"r"}, Usage: "Raw model response, \"-\" for stdin or @file"},
					&cli.StringFlag{Name: "primary", Usage: "Override: primary category"},
					&cli.StringFlag{Name: "secondary", Usage: "Override: secondary category"},
					&cli.StringFlag{Name: "note-type", Usage: "Override: display name"},
				},
				Action: storeNote,
			},
			{
				Name:   "capture",
				Usage:  "Classify a note with the configured model and file it",
				Flags:  []cli.Flag{inputFlag()},
				Action: captureNote,
			},
			{
				Name:  "audit",
				Usage: "Check every category index against the files on disk",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "repair", Usage: "List orphaned notes and fix header counts"},
				},
				Action: auditIndexes,
			},
			{
				Name:   "prompt",
				Usage:  "Print the classification prompt",
				Action: printPrompt,
			},
			{
				Name:      "set-root",
				Usage:     "Save the storage root used when the config leaves it empty",
				ArgsUsage: "<dir>",
				Action:    setRoot,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
