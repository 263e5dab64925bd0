package main

import (
	"fmt"
	"os"
	"time"

	"github.com/poiesic/lexis/config"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/reembed"
	"github.com/urfave/cli/v2"
)

func reembedCommand() *cli.Command {
	return &cli.Command{
		Name:   "reembed",
		Usage:  "Recompute the embeddings of all indexed chunks",
		Action: reembedAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chunks to process in each batch",
				Value: reembed.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chunks",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum retry attempts for failed operations",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: 1 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "missing-only",
				Usage: "Only embed chunks stored without an embedding",
			},
		},
	}
}

func reembedAction(c *cli.Context) error {
	cfg := appConfig(c)
	reembedConfig := &reembed.Config{
		Collection:     cfg.Storage.Collection,
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		MissingOnly:    c.Bool("missing-only"),
	}
	if err := reembedConfig.Validate(); err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	errOut := c.App.ErrWriter
	fmt.Fprintf(errOut, "Collection: %s\n", cfg.Storage.Collection)
	fmt.Fprintf(errOut, "Embedding provider: %s\n", cfg.Embedding.Provider)
	fmt.Fprintf(errOut, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(errOut)

	summary, err := engine.Reembed(c.Context, reembedConfig, errOut)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Embedded %d chunks, skipped %d of %d in %s\n",
		summary.Embedded, summary.Skipped, summary.Total, summary.Took.Round(time.Millisecond))
	return nil
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show document, chunk and section type counts",
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(c.Context)
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintf(out, "Collection: %s\n", stats.Collection)
	fmt.Fprintf(out, "Documents:  %d (%d degraded)\n", stats.Documents, stats.Degraded)
	fmt.Fprintf(out, "Chunks:     %d\n", stats.Chunks)
	fmt.Fprintln(out, "Segments:")
	for _, st := range core.SectionTypes {
		if n := stats.Segments[st.String()]; n > 0 {
			fmt.Fprintf(out, "  %-18s %d\n", st.String(), n)
		}
	}
	return nil
}

func initConfigCommand() *cli.Command {
	return &cli.Command{
		Name:      "init-config",
		Usage:     "Write the default configuration to a file",
		ArgsUsage: "<path>",
		Action:    initConfigAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Replace an existing file",
			},
		},
	}
}

func initConfigAction(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a config path is required")
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("overwrite") {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
