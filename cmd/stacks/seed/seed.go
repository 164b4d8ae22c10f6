// Package seedcmder provides the seed command for loading papers into the
// metadata store.
package seedcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shelfworksco/stacks/pkg/cliui"
	"github.com/shelfworksco/stacks/pkg/config"
	"github.com/shelfworksco/stacks/pkg/papers"
	papersutils "github.com/shelfworksco/stacks/pkg/papers/utils"
)

const seedLongDesc string = `Load papers into the metadata store.

Reads a JSON file containing an array of paper records and writes them to
the configured metadata store, splitting each paper's full text into
paragraphs for paragraph-granularity indexing. Papers without an id are
assigned one. Existing papers with the same id are replaced.

Record format:
  {
    "id": "optional-stable-id",
    "title": "...",
    "authors": ["..."],
    "abstract": "...",
    "publication_year": 2024,
    "conference": "...",
    "journal": "...",
    "keywords": ["..."],
    "full_text": "optional full text, split into paragraphs"
  }

The loaded papers become searchable after the next index rebuild (run
'stacks index rebuild' against a running server, or restart it).

Examples:
  stacks seed papers.json
  stacks seed papers.json --sqlite ./papers.db
  stacks seed --demo`

const seedShortDesc string = "Load papers into the metadata store"

type seedCommander struct {
	inputPath   string
	storage     string
	sqlitePath  string
	postgresURL string
	demo        bool
}

// seedRecord is one paper entry in the input file.
type seedRecord struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	Abstract        string   `json:"abstract"`
	PublicationYear *int     `json:"publication_year"`
	Conference      string   `json:"conference"`
	Journal         string   `json:"journal"`
	Keywords        []string `json:"keywords"`
	FullText        string   `json:"full_text"`
}

func NewSeedCmd() *cobra.Command {
	cmder := &seedCommander{}

	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
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
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cmder.inputPath = args[0]
			}
			if cmder.inputPath == "" && !cmder.demo {
				return fmt.Errorf("provide an input file or use --demo")
			}
			return cmder.run(cmd.Context())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.storage, "storage", defaults.Storage.Provider, "Metadata store provider (memory, sqlite, postgres)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", defaults.Storage.SQLitePath, "Path to SQLite database")
	cmd.Flags().StringVar(&cmder.postgresURL, "postgres-url", defaults.Storage.PostgresURL, "PostgreSQL connection URL")
	cmd.Flags().BoolVarP(&cmder.demo, "demo", "m", false, "Seed built-in demo papers")

	return cmd
}

func (c *seedCommander) run(ctx context.Context) error {
	records, err := c.loadRecords()
	if err != nil {
		return err
	}

	store, err := papersutils.NewStore(ctx, &papersutils.NewStoreOpts{
		Provider:    c.storage,
		SQLitePath:  c.sqlitePath,
		PostgresURL: c.postgresURL,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		return fmt.Errorf("creating metadata store: %w", err)
	}
	defer store.Close()

	var paperCount, paragraphCount int
	if err := cliui.Step(os.Stdout, "Seeding papers", func() error {
		for _, rec := range records {
			paper, paragraphs := rec.toPaper()
			if err := store.PutPaper(ctx, paper, paragraphs); err != nil {
				return fmt.Errorf("storing paper %s: %w", paper.ID, err)
			}
			paperCount++
			paragraphCount += len(paragraphs)
		}
		return nil
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Seeded %s papers %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(paperCount)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d paragraphs)", paragraphCount)),
	)
	return nil
}

func (c *seedCommander) loadRecords() ([]seedRecord, error) {
	if c.demo {
		return demoRecords(), nil
	}

	data, err := os.ReadFile(c.inputPath)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing input file: %w", err)
	}

	return records, nil
}

func (r seedRecord) toPaper() (*papers.Paper, []*papers.Paragraph) {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}

	paper := &papers.Paper{
		ID:              id,
		Title:           r.Title,
		Authors:         r.Authors,
		Abstract:        r.Abstract,
		PublicationYear: r.PublicationYear,
		Conference:      r.Conference,
		Journal:         r.Journal,
		Keywords:        r.Keywords,
		IngestedAt:      time.Now().UTC(),
	}

	text := r.FullText
	if text == "" {
		text = r.Abstract
	}

	return paper, papers.SplitParagraphs(id, text)
}
