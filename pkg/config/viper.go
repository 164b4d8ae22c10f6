package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if present in the resolved config directory), and binds environment
// variables with the STACKS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (STACKS_SERVER_LISTEN, STACKS_STORAGE_PROVIDER, ...)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	dir, err := Dir(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: STACKS_SERVER_LISTEN, STACKS_EMBEDDING_MODEL, etc.
	v.SetEnvPrefix("STACKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of
// truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Server
	v.SetDefault("server.listen", d.Server.Listen)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_url", d.Storage.PostgresURL)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Index
	v.SetDefault("index.flat_threshold", d.Index.FlatThreshold)
	v.SetDefault("index.hnsw_m", d.Index.HNSWM)
	v.SetDefault("index.hnsw_ef_construction", d.Index.HNSWEfConstruction)
	v.SetDefault("index.hnsw_ef_search", d.Index.HNSWEfSearch)
	v.SetDefault("index.rebuild_on_start", d.Index.RebuildOnStart)

	// Search
	v.SetDefault("search.default_limit", d.Search.DefaultLimit)
	v.SetDefault("search.overfetch_factor", d.Search.OverfetchFactor)
	v.SetDefault("search.max_overfetch_factor", d.Search.MaxOverfetchFactor)
	v.SetDefault("search.max_paragraphs_per_paper", d.Search.MaxParagraphsPerPaper)
	v.SetDefault("search.similarity_threshold", d.Search.SimilarityThreshold)
}

// FromViper materializes a Config from a viper instance, preserving the
// precedence stack it was built with.
func FromViper(v *viper.Viper) *Config {
	cfg := NewDefaultConfig()

	cfg.Server.Listen = v.GetString("server.listen")
	cfg.Storage.Provider = v.GetString("storage.provider")
	cfg.Storage.SQLitePath = v.GetString("storage.sqlite_path")
	cfg.Storage.PostgresURL = v.GetString("storage.postgres_url")
	cfg.Client.APITarget = v.GetString("client.api_target")
	cfg.Embedding.Provider = v.GetString("embedding.provider")
	cfg.Embedding.Target = v.GetString("embedding.target")
	cfg.Embedding.Model = v.GetString("embedding.model")
	cfg.Embedding.Dimensions = v.GetUint("embedding.dimensions")
	cfg.Index.FlatThreshold = v.GetInt("index.flat_threshold")
	cfg.Index.HNSWM = v.GetInt("index.hnsw_m")
	cfg.Index.HNSWEfConstruction = v.GetInt("index.hnsw_ef_construction")
	cfg.Index.HNSWEfSearch = v.GetInt("index.hnsw_ef_search")
	cfg.Index.RebuildOnStart = v.GetBool("index.rebuild_on_start")
	cfg.Search.DefaultLimit = v.GetInt("search.default_limit")
	cfg.Search.OverfetchFactor = v.GetInt("search.overfetch_factor")
	cfg.Search.MaxOverfetchFactor = v.GetInt("search.max_overfetch_factor")
	cfg.Search.MaxParagraphsPerPaper = v.GetInt("search.max_paragraphs_per_paper")
	cfg.Search.SimilarityThreshold = v.GetFloat64("search.similarity_threshold")

	return cfg
}
