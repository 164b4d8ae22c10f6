package config

const (
	defaultListen = ":8080"

	defaultClientAPITarget = "http://localhost:8080"

	defaultStorageProvider = "sqlite"
	defaultSQLitePath      = "stacks.db"

	defaultEmbeddingProvider   = "hashing"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 384

	defaultFlatThreshold      = 2000
	defaultHNSWM              = 32
	defaultHNSWEfConstruction = 200
	defaultHNSWEfSearch       = 128

	defaultSearchLimit           = 10
	defaultOverfetchFactor       = 4
	defaultMaxOverfetchFactor    = 32
	defaultMaxParagraphsPerPaper = 3
	defaultSimilarityThreshold   = 0.2
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Storage: StorageConfig{
			Provider:   defaultStorageProvider,
			SQLitePath: defaultSQLitePath,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Index: IndexConfig{
			FlatThreshold:      defaultFlatThreshold,
			HNSWM:              defaultHNSWM,
			HNSWEfConstruction: defaultHNSWEfConstruction,
			HNSWEfSearch:       defaultHNSWEfSearch,
			RebuildOnStart:     true,
		},
		Search: SearchConfig{
			DefaultLimit:          defaultSearchLimit,
			OverfetchFactor:       defaultOverfetchFactor,
			MaxOverfetchFactor:    defaultMaxOverfetchFactor,
			MaxParagraphsPerPaper: defaultMaxParagraphsPerPaper,
			SimilarityThreshold:   defaultSimilarityThreshold,
		},
	}
}
