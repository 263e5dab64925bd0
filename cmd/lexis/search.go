package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/selector"
	"github.com/urfave/cli/v2"
)

const previewLength = 160

func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "strategy",
			Aliases: []string{"s"},
			Usage:   "Retrieval strategy (semantic, keyword, hybrid)",
			Value:   string(core.StrategyHybrid),
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of results; 0 uses the configured default",
		},
		&cli.Float64Flag{
			Name:  "min-similarity",
			Usage: "Drop semantic candidates below this similarity",
		},
		&cli.StringSliceFlag{
			Name:  "section",
			Usage: "Restrict results to these section types (e.g. fact_pattern)",
		},
		&cli.StringSliceFlag{
			Name:  "document",
			Usage: "Restrict results to these document IDs",
		},
		&cli.StringSliceFlag{
			Name:  "norm",
			Usage: "Restrict results to chunks citing one of these norms (e.g. \"§ 2325 BGB\")",
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the index",
		ArgsUsage: "<query>",
		Action:    searchAction,
		Flags:     queryFlags(),
	}
}

func selectCommand() *cli.Command {
	return &cli.Command{
		Name:      "select",
		Usage:     "Search and select the passages that fit a token budget",
		ArgsUsage: "<query>",
		Action:    selectAction,
		Flags:     queryFlags(),
	}
}

// searchRequest builds a request from the query arguments and flags.
func searchRequest(c *cli.Context) (*core.SearchRequest, error) {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return nil, fmt.Errorf("a query is required")
	}
	strategy, err := core.ParseStrategy(c.String("strategy"))
	if err != nil {
		return nil, err
	}
	req := &core.SearchRequest{
		Text:          text,
		Strategy:      strategy,
		Limit:         c.Int("limit"),
		MinSimilarity: c.Float64("min-similarity"),
		Filters: core.Filter{
			DocumentIDs: c.StringSlice("document"),
			LegalNorms:  c.StringSlice("norm"),
		},
	}
	for _, name := range c.StringSlice("section") {
		st, err := core.ParseSectionType(name)
		if err != nil {
			return nil, err
		}
		req.Filters.SectionTypes = append(req.Filters.SectionTypes, st)
	}
	return req, nil
}

func searchAction(c *cli.Context) error {
	req, err := searchRequest(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	resp, err := engine.Search(c.Context, req)
	if err != nil {
		return err
	}
	out := c.App.Writer
	printAnalysis(out, resp)
	for _, r := range resp.Results {
		fmt.Fprintf(out, "%2d. [%.3f | sim %.3f] %s (%s, %s)\n",
			r.Rank, r.RelevanceScore, r.SimilarityScore, r.ChunkID, r.Metadata.SectionType, matchedBy(r.MatchedBy))
		fmt.Fprintf(out, "    %s\n", preview(r.Text))
	}
	fmt.Fprintf(out, "%d results, avg similarity %.3f, %s\n", resp.TotalFound, resp.AvgSimilarityScore, resp.Took)
	return nil
}

func selectAction(c *cli.Context) error {
	req, err := searchRequest(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Select(c.Context, req)
	if err != nil {
		return err
	}
	out := c.App.Writer
	printAnalysis(out, result.Response)
	printSelection(out, result.Selection)
	return nil
}

func printAnalysis(w io.Writer, resp *core.SearchResponse) {
	if q := resp.QueryAnalysis; q != nil {
		fmt.Fprintf(w, "Query %s (%s)\n", resp.QueryID, q.Strategy)
		if len(q.ExtractedNorms) > 0 {
			norms := make([]string, len(q.ExtractedNorms))
			for i, n := range q.ExtractedNorms {
				norms[i] = n.String()
			}
			fmt.Fprintf(w, "  norms:    %s\n", strings.Join(norms, ", "))
		}
		if len(q.LegalConcepts) > 0 {
			fmt.Fprintf(w, "  concepts: %s\n", strings.Join(q.LegalConcepts, ", "))
		}
		if len(q.Keywords) > 0 {
			fmt.Fprintf(w, "  keywords: %s\n", strings.Join(q.Keywords, ", "))
		}
	}
	if resp.Degraded {
		fmt.Fprintf(w, "  degraded: %s\n", strings.Join(resp.Warnings, "; "))
	}
}

func printSelection(w io.Writer, sel *selector.Selection) {
	for i, s := range sel.Chunks {
		fmt.Fprintf(w, "%2d. [%.3f | %d tokens] %s (%s)\n", i+1, s.Score, s.Tokens, s.Chunk.ID, s.Chunk.SectionType)
		fmt.Fprintf(w, "    %s\n", preview(s.Chunk.Text))
	}
	fmt.Fprintf(w, "Selected %d of %d candidates, %d/%d tokens (%d over budget, %d redundant)\n",
		len(sel.Chunks), sel.Considered, sel.TotalTokens, sel.Budget, sel.SkippedBudget, sel.SkippedRedundant)
}

func matchedBy(strategies []core.Strategy) string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = string(s)
	}
	return strings.Join(names, "+")
}

// preview shortens text to one line of at most previewLength runes.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "…"
}
