package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/notefiler/internal/catalog"
	"github.com/starford/notefiler/internal/classify"
	"github.com/starford/notefiler/internal/filer"
	"github.com/starford/notefiler/internal/llm"
	"github.com/starford/notefiler/internal/metastore"
	"github.com/starford/notefiler/internal/notes"
	"github.com/starford/notefiler/internal/noteservice"
	"github.com/starford/notefiler/internal/notify"
	"github.com/starford/notefiler/internal/sse"
	"github.com/starford/notefiler/internal/storage"
)

// Components are the long-lived services shared by the HTTP server, the
// MCP server and the one-shot CLI commands.
type Components struct {
	Config  *Config
	Logger  *slog.Logger
	DB      *metastore.DB
	Storage storage.Provider
	// Root is the absolute storage root, empty when unresolved.
	Root    string
	Catalog *catalog.Maintainer
	Notes   *notes.Engine
	Filer   *filer.Filer
	Broker  *sse.Broker
}

// NewLogger builds the JSON logger used by every entry point. Output goes
// to stderr so the stdio MCP transport keeps stdout to itself.
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// Build opens the metadata store and wires the filing pipeline. A missing
// or unreachable storage root is not fatal: stores then fail with
// apperr.ErrStorageUnavailable until the root is fixed.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	db, err := metastore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init metastore: %w", err)
	}

	c := &Components{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Broker: sse.NewBroker(2 * time.Second),
	}

	root, err := ResolveRoot(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if fs, err := storage.NewFS(root); err != nil {
		logger.Warn("storage unavailable", slog.String("root", root), slog.String("error", err.Error()))
		c.Storage = storage.Unavailable{Reason: err.Error()}
	} else {
		c.Storage = fs
		c.Root = fs.Root()
	}

	c.Catalog = catalog.New(c.Storage, catalog.WithIndexName(cfg.Storage.IndexFile))
	c.Notes = notes.New(c.Storage, c.Catalog,
		notes.WithRoot(cfg.Storage.NotesDir),
		notes.WithLogger(logger))

	deps := filer.Deps{
		Storage: c.Storage,
		Notes:   c.Notes,
		Records: db,
		Notifier: notify.Multi{
			notify.Log{Logger: logger},
			notify.Broker{B: c.Broker},
		},
		Prompt: cfg.LLM.Prompt,
	}
	if cfg.LLM.Enabled() {
		completer, err := llm.New(cfg.LLM.ClientConfig())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init llm: %w", err)
		}
		deps.Completer = completer
	}

	opts := []filer.Option{filer.WithLogger(logger)}
	if cfg.Classifier.Fallback == FallbackKeyword {
		opts = append(opts, filer.WithFallback(classify.KeywordFallback{}))
	}
	c.Filer = filer.New(deps, opts...)

	logger.Info("components ready",
		slog.String("storage_root", c.Root),
		slog.String("notes_dir", cfg.Storage.NotesDir),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("fallback", cfg.Classifier.Fallback))
	return c, nil
}

// ResolveRoot returns the configured storage root, or the one saved in the
// metadata store when the config leaves it empty.
func ResolveRoot(ctx context.Context, cfg *Config, db metastore.Store) (string, error) {
	if cfg.Storage.Root != "" {
		return cfg.Storage.Root, nil
	}
	root, ok, err := db.Get(ctx, metastore.KeyStorageRoot)
	if err != nil {
		return "", fmt.Errorf("read storage root: %w", err)
	}
	if !ok {
		return "", nil
	}
	return root, nil
}

// Close releases the broker and the metadata store.
func (c *Components) Close() error {
	if c.Broker != nil {
		c.Broker.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Service returns the note service shared by the REST API and MCP server.
func (c *Components) Service() *noteservice.Service {
	return noteservice.NewService(c.Filer, c.DB, c.Storage, c.Catalog, c.Config.Storage.NotesDir)
}
