// Package searchcmder provides the search command for querying a running
// Stacks server.
package searchcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfworksco/stacks/api"
	"github.com/shelfworksco/stacks/pkg/cliui"
	"github.com/shelfworksco/stacks/pkg/config"
	"github.com/shelfworksco/stacks/pkg/papers"
	"github.com/shelfworksco/stacks/pkg/search"
	"github.com/shelfworksco/stacks/pkg/utils"
)

type searchCommander struct {
	query      string
	limit      int
	offset     int
	paragraphs bool
	yearMin    int
	yearMax    int
	authors    []string
	keywords   []string
	conference string
	journal    string
	jsonOut    bool

	apiTarget string
}

const searchLongDesc string = `Search the corpus via the Stacks API.

Runs a semantic search over the indexed papers, returning the most relevant
results for the query text. Requires a running Stacks server with a built
index.

Filters combine with AND: all supplied criteria must match. Author and
keyword filters are repeatable and require every given value to be present
on the paper.

Examples:
  stacks search "transformer attention mechanisms"
  stacks search "nearest neighbor" --paragraphs
  stacks search "retrieval" --year-min 2019 --year-max 2021 --keyword embeddings
  stacks search "language models" --author "Jacob Devlin" --limit 3
  stacks search "dense retrieval" --json`

const searchShortDesc string = "Search the corpus"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
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

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().IntVarP(&cmder.limit, "limit", "k", defaults.Search.DefaultLimit, "Number of results to return")
	cmd.Flags().IntVar(&cmder.offset, "offset", 0, "Number of results to skip")
	cmd.Flags().BoolVarP(&cmder.paragraphs, "paragraphs", "p", false, "Search at paragraph granularity")
	cmd.Flags().IntVar(&cmder.yearMin, "year-min", 0, "Minimum publication year")
	cmd.Flags().IntVar(&cmder.yearMax, "year-max", 0, "Maximum publication year")
	cmd.Flags().StringArrayVar(&cmder.authors, "author", nil, "Require this author (repeatable)")
	cmd.Flags().StringArrayVar(&cmder.keywords, "keyword", nil, "Require this keyword (repeatable)")
	cmd.Flags().StringVar(&cmder.conference, "conference", "", "Require this conference")
	cmd.Flags().StringVar(&cmder.journal, "journal", "", "Require this journal")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Output raw JSON")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Stacks API server URL")

	return cmd
}

func (c *searchCommander) run(cmd *cobra.Command) error {
	req := api.SearchRequest{
		Query:         c.query,
		UseParagraphs: c.paragraphs,
		Limit:         c.limit,
		Offset:        c.offset,
		Filters:       c.buildFilter(cmd),
	}

	resp, err := SearchAPI(cmd.Context(), c.apiTarget, req)
	if err != nil {
		return err
	}

	if c.jsonOut {
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("\n%s %s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		cliui.NameStyle.Render(fmt.Sprintf("%q", resp.Query)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d total, %.0fms)", resp.TotalCount, resp.ExecutionTimeMS)),
	)

	for i, result := range resp.Results {
		c.printResult(c.offset+i+1, result)
	}

	return nil
}

func (c *searchCommander) buildFilter(cmd *cobra.Command) *papers.Filter {
	f := &papers.Filter{
		Authors:    c.authors,
		Keywords:   c.keywords,
		Conference: c.conference,
		Journal:    c.journal,
	}
	if cmd.Flags().Changed("year-min") {
		f.YearMin = &c.yearMin
	}
	if cmd.Flags().Changed("year-max") {
		f.YearMax = &c.yearMax
	}

	if f.YearMin == nil && f.YearMax == nil && len(f.Authors) == 0 &&
		len(f.Keywords) == 0 && f.Conference == "" && f.Journal == "" {
		return nil
	}
	return f
}

func (c *searchCommander) printResult(rank int, result search.Result) {
	fmt.Printf("  %s  %s  %s\n",
		cliui.RankStyle.Render(fmt.Sprintf("#%d", rank)),
		cliui.ScoreStyle.Render(fmt.Sprintf("score: %.4f", result.SimilarityScore)),
		cliui.TitleStyle.Render(result.Title),
	)

	var meta []string
	if len(result.Authors) > 0 {
		meta = append(meta, strings.Join(result.Authors, ", "))
	}
	if result.PublicationYear != nil {
		meta = append(meta, fmt.Sprintf("%d", *result.PublicationYear))
	}
	if result.Conference != "" {
		meta = append(meta, result.Conference)
	}
	if result.Journal != "" {
		meta = append(meta, result.Journal)
	}
	if len(meta) > 0 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render(strings.Join(meta, " · ")))
	}

	abstract := utils.Oneline(utils.Truncate(result.Abstract, 160))
	if abstract != "" {
		fmt.Printf("  %s\n", cliui.PreviewStyle.Render(abstract))
	}

	for _, p := range result.MatchingParagraphs {
		text := utils.Oneline(utils.Truncate(p.Text, 100))
		label := p.Section
		if label == "" {
			label = fmt.Sprintf("paragraph %d", p.ParagraphIndex)
		}
		fmt.Printf("  %s %s %s\n",
			cliui.DimStyle.Render("├─"),
			cliui.ScoreStyle.Render(fmt.Sprintf("[%s %.4f]", label, p.Score)),
			cliui.PreviewStyle.Render(text),
		)
	}
	if result.MoreParagraphs > 0 {
		fmt.Printf("  %s\n", cliui.DimStyle.Render(fmt.Sprintf("└─ %d more matching paragraphs", result.MoreParagraphs)))
	}

	fmt.Println()
}

// SearchAPI calls the stacks search API and returns the parsed response.
// Exported so other commands can reuse it.
func SearchAPI(ctx context.Context, apiTarget string, req api.SearchRequest) (*search.Response, error) {
	searchURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	searchURL.Path = "/api/search"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Stacks API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("search request failed (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var output search.Response
	if err := json.Unmarshal(respBody, &output); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &output, nil
}
