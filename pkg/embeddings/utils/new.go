// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/shelfworksco/stacks/pkg/embeddings"
	"github.com/shelfworksco/stacks/pkg/embeddings/hashing"
	"github.com/shelfworksco/stacks/pkg/embeddings/ollama"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimension    int
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "hashing":
		return hashing.NewEmbedder(hashing.Config{
			Dimension: o.Dimension,
		})
	case "ollama":
		return ollama.NewEmbedder(ollama.Config{
			BaseURL:   o.TargetURL,
			Model:     o.Model,
			Dimension: o.Dimension,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
