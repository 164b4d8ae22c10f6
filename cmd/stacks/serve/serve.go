// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/api"
	"github.com/shelfworksco/stacks/pkg/config"
	embeddingutils "github.com/shelfworksco/stacks/pkg/embeddings/utils"
	"github.com/shelfworksco/stacks/pkg/index"
	"github.com/shelfworksco/stacks/pkg/logger"
	papersutils "github.com/shelfworksco/stacks/pkg/papers/utils"
	"github.com/shelfworksco/stacks/pkg/search"
	"github.com/shelfworksco/stacks/pkg/vector"
	"github.com/shelfworksco/stacks/pkg/vector/hnsw"
)

type ServeCommander struct {
	listen        string
	storage       string
	sqlitePath    string
	postgresURL   string
	embedProvider string
	embedTarget   string
	embedModel    string
	logJSON       bool
	noRebuild     bool
	debug         bool
	cfg           *config.Config
	logger        *zap.Logger
}

const serveLongDesc string = `Run the Stacks API server.

Serves semantic search and index lifecycle endpoints over HTTP. On startup
the index is rebuilt from the metadata store for both granularities unless
--no-rebuild is given; until a rebuild completes, search requests fail with
a service-unavailable error.

Examples:
  stacks serve
  stacks serve --listen :9090 --sqlite ./papers.db
  stacks serve --storage postgres --postgres-url postgres://localhost/stacks
  stacks serve --no-rebuild`

const serveShortDesc string = "Run the Stacks API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg := config.FromViper(v)
			cmder.cfg = cfg

			// CLI flags take precedence over config file values.
			if !cmd.Flags().Changed("listen") {
				cmder.listen = cfg.Server.Listen
			}
			if !cmd.Flags().Changed("storage") {
				cmder.storage = cfg.Storage.Provider
			}
			if !cmd.Flags().Changed("sqlite") {
				cmder.sqlitePath = cfg.Storage.SQLitePath
			}
			if !cmd.Flags().Changed("postgres-url") {
				cmder.postgresURL = cfg.Storage.PostgresURL
			}
			if !cmd.Flags().Changed("embed-provider") {
				cmder.embedProvider = cfg.Embedding.Provider
			}
			if !cmd.Flags().Changed("embed-target") {
				cmder.embedTarget = cfg.Embedding.Target
			}
			if !cmd.Flags().Changed("embed-model") {
				cmder.embedModel = cfg.Embedding.Model
			}
			if !cmd.Flags().Changed("no-rebuild") {
				cmder.noRebuild = !cfg.Index.RebuildOnStart
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", defaults.Server.Listen, "Address for the API server to listen on")
	cmd.Flags().StringVar(&cmder.storage, "storage", defaults.Storage.Provider, "Metadata store provider (memory, sqlite, postgres)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", defaults.Storage.SQLitePath, "Path to SQLite database")
	cmd.Flags().StringVar(&cmder.postgresURL, "postgres-url", defaults.Storage.PostgresURL, "PostgreSQL connection URL")
	cmd.Flags().StringVar(&cmder.embedProvider, "embed-provider", defaults.Embedding.Provider, "Embedding provider (hashing, ollama)")
	cmd.Flags().StringVar(&cmder.embedTarget, "embed-target", defaults.Embedding.Target, "Embedding provider URL (ollama)")
	cmd.Flags().StringVar(&cmder.embedModel, "embed-model", defaults.Embedding.Model, "Embedding model name (ollama)")
	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Emit JSON logs instead of console output")
	cmd.Flags().BoolVar(&cmder.noRebuild, "no-rebuild", false, "Skip the index rebuild on startup")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	if c.logJSON {
		c.logger = logger.NewServiceLogger(c.debug)
	} else {
		c.logger = logger.NewLogger(c.debug)
	}
	defer func() { _ = c.logger.Sync() }()

	store, err := papersutils.NewStore(ctx, &papersutils.NewStoreOpts{
		Provider:    c.storage,
		SQLitePath:  c.sqlitePath,
		PostgresURL: c.postgresURL,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating metadata store: %w", err)
	}
	defer store.Close()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embedProvider,
		TargetURL:    c.embedTarget,
		Model:        c.embedModel,
		Dimension:    int(c.cfg.Embedding.Dimensions),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	manager := index.NewManager(store, embedder, vector.BuildOptions{
		Dimension:     int(c.cfg.Embedding.Dimensions),
		FlatThreshold: c.cfg.Index.FlatThreshold,
		HNSW: hnsw.Config{
			M:              c.cfg.Index.HNSWM,
			EfConstruction: c.cfg.Index.HNSWEfConstruction,
			EfSearch:       c.cfg.Index.HNSWEfSearch,
		},
	}, c.logger)

	searcher := search.NewService(manager, store, embedder, c.logger, search.Options{
		DefaultLimit:          c.cfg.Search.DefaultLimit,
		OverfetchFactor:       c.cfg.Search.OverfetchFactor,
		MaxOverfetchFactor:    c.cfg.Search.MaxOverfetchFactor,
		MaxParagraphsPerPaper: c.cfg.Search.MaxParagraphsPerPaper,
		SimilarityThreshold:   c.cfg.Search.SimilarityThreshold,
	})

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.listen,
	}, searcher, manager, store, c.logger)

	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if !c.noRebuild {
		// Initial build runs in the background so the server answers
		// status and health checks immediately.
		go c.rebuildAll(ctx, manager)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

func (c *ServeCommander) rebuildAll(ctx context.Context, manager *index.Manager) {
	for _, g := range []vector.Granularity{vector.GranularityPaper, vector.GranularityParagraph} {
		result, err := manager.Rebuild(ctx, g)
		if err != nil {
			c.logger.Warn("startup rebuild failed",
				zap.String("granularity", string(g)),
				zap.Error(err),
			)
			continue
		}
		c.logger.Info("startup rebuild complete",
			zap.String("granularity", string(g)),
			zap.Int("documents", result.DocumentCount),
			zap.Duration("took", result.Duration),
		)
	}
}
