package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent stacks configuration stored as
// config.toml in the .stacks/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Client    ClientConfig    `toml:"client"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Search    SearchConfig    `toml:"search"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds metadata store settings.
type StorageConfig struct {
	// Provider selects the store backend: memory, sqlite, or postgres.
	Provider string `toml:"provider,omitempty"`

	// SQLitePath is the database file for the sqlite provider.
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// PostgresURL is the connection string for the postgres provider.
	PostgresURL string `toml:"postgres_url,omitempty"`
}

// ClientConfig holds settings for CLI commands that connect to a running
// stacks server (e.g. stacks search, stacks index status). The value is a
// full URL (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// IndexConfig holds vector index build parameters.
type IndexConfig struct {
	// FlatThreshold is the corpus size at which the hybrid HNSW+flat
	// variant replaces the flat-only index.
	FlatThreshold int `toml:"flat_threshold,omitempty"`

	HNSWM              int `toml:"hnsw_m,omitempty"`
	HNSWEfConstruction int `toml:"hnsw_ef_construction,omitempty"`
	HNSWEfSearch       int `toml:"hnsw_ef_search,omitempty"`

	// RebuildOnStart builds both granularities at serve startup when the
	// corpus is non-empty.
	RebuildOnStart bool `toml:"rebuild_on_start,omitempty"`
}

// SearchConfig holds search service parameters.
type SearchConfig struct {
	DefaultLimit          int     `toml:"default_limit,omitempty"`
	OverfetchFactor       int     `toml:"overfetch_factor,omitempty"`
	MaxOverfetchFactor    int     `toml:"max_overfetch_factor,omitempty"`
	MaxParagraphsPerPaper int     `toml:"max_paragraphs_per_paper,omitempty"`
	SimilarityThreshold   float64 `toml:"similarity_threshold,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on
// *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_url": {
		get: func(c *Config) string { return c.Storage.PostgresURL },
		set: func(c *Config, v string) error { c.Storage.PostgresURL = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"index.flat_threshold": {
		get: func(c *Config) string { return strconv.Itoa(c.Index.FlatThreshold) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for index.flat_threshold: %w", err)
			}
			c.Index.FlatThreshold = n
			return nil
		},
	},
	"index.hnsw_m": {
		get: func(c *Config) string { return strconv.Itoa(c.Index.HNSWM) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for index.hnsw_m: %w", err)
			}
			c.Index.HNSWM = n
			return nil
		},
	},
	"index.hnsw_ef_construction": {
		get: func(c *Config) string { return strconv.Itoa(c.Index.HNSWEfConstruction) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for index.hnsw_ef_construction: %w", err)
			}
			c.Index.HNSWEfConstruction = n
			return nil
		},
	},
	"index.hnsw_ef_search": {
		get: func(c *Config) string { return strconv.Itoa(c.Index.HNSWEfSearch) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for index.hnsw_ef_search: %w", err)
			}
			c.Index.HNSWEfSearch = n
			return nil
		},
	},
	"index.rebuild_on_start": {
		get: func(c *Config) string { return strconv.FormatBool(c.Index.RebuildOnStart) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for index.rebuild_on_start: %w", err)
			}
			c.Index.RebuildOnStart = b
			return nil
		},
	},
	"search.default_limit": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.DefaultLimit) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.default_limit: %w", err)
			}
			c.Search.DefaultLimit = n
			return nil
		},
	},
	"search.overfetch_factor": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.OverfetchFactor) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.overfetch_factor: %w", err)
			}
			c.Search.OverfetchFactor = n
			return nil
		},
	},
	"search.max_overfetch_factor": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.MaxOverfetchFactor) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.max_overfetch_factor: %w", err)
			}
			c.Search.MaxOverfetchFactor = n
			return nil
		},
	},
	"search.max_paragraphs_per_paper": {
		get: func(c *Config) string { return strconv.Itoa(c.Search.MaxParagraphsPerPaper) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.max_paragraphs_per_paper: %w", err)
			}
			c.Search.MaxParagraphsPerPaper = n
			return nil
		},
	},
	"search.similarity_threshold": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Search.SimilarityThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for search.similarity_threshold: %w", err)
			}
			c.Search.SimilarityThreshold = f
			return nil
		},
	},
}
