package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Segment, cluster and index opinions read as JSON lines",
		ArgsUsage: "[file]",
		Description: "Each input line is an object with the fields id, publication_date (YYYY-MM-DD), " +
			"legal_area, legal_norms and text. Without a file, or with \"-\", lines are read from stdin.",
		Action: ingestAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Re-ingest documents whose text has not changed",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of documents handed to the pipeline at once",
				Value: 100,
			},
		},
	}
}

// documentLine is one input record of the ingest command.
type documentLine struct {
	ID              string   `json:"id"`
	PublicationDate string   `json:"publication_date"`
	LegalArea       string   `json:"legal_area"`
	LegalNorms      []string `json:"legal_norms"`
	Text            string   `json:"text"`
}

func (l documentLine) document() (*core.Document, error) {
	doc := &core.Document{
		ID:         l.ID,
		LegalArea:  l.LegalArea,
		LegalNorms: l.LegalNorms,
		RawText:    l.Text,
	}
	if l.PublicationDate != "" {
		date, err := time.Parse(time.DateOnly, l.PublicationDate)
		if err != nil {
			return nil, fmt.Errorf("document %q: invalid publication_date: %w", l.ID, err)
		}
		doc.PublicationDate = date
	}
	return doc, nil
}

// readDocuments decodes JSON lines. Blank lines are skipped.
func readDocuments(r io.Reader) ([]*core.Document, error) {
	var docs []*core.Document
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var line documentLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		doc, err := line.document()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		docs = append(docs, doc)
	}
	return docs, scanner.Err()
}

func ingestAction(c *cli.Context) error {
	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	in := io.Reader(os.Stdin)
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	docs, err := readDocuments(in)
	if err != nil {
		return fmt.Errorf("failed to read documents: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	out := c.App.Writer
	total := &ingestion.Report{}
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		report, err := engine.Ingest(c.Context, docs[start:end], ingestion.WithForce(c.Bool("force")))
		if err != nil {
			return fmt.Errorf("ingestion interrupted: %w", err)
		}
		for _, d := range report.Documents {
			printDocumentReport(out, d)
		}
		total.Ingested += report.Ingested
		total.Skipped += report.Skipped
		total.Failed += report.Failed
		total.Degraded += report.Degraded
		total.Chunks += report.Chunks
		total.Took += report.Took
	}

	fmt.Fprintf(out, "Ingested %d, skipped %d, failed %d, degraded %d documents; %d chunks in %s\n",
		total.Ingested, total.Skipped, total.Failed, total.Degraded, total.Chunks, total.Took.Round(time.Millisecond))
	if total.Failed > 0 {
		return fmt.Errorf("%d documents failed", total.Failed)
	}
	return nil
}

func printDocumentReport(w io.Writer, d ingestion.DocumentReport) {
	switch {
	case d.Err != nil:
		fmt.Fprintf(w, "%-8s %s: %v\n", d.Status, d.DocumentID, d.Err)
	case d.Status == ingestion.StatusSkipped:
		fmt.Fprintf(w, "%-8s %s: unchanged\n", d.Status, d.DocumentID)
	default:
		fmt.Fprintf(w, "%-8s %s: %d segments (%s), %d chunks\n", d.Status, d.DocumentID, d.Segments, d.Strategy, d.Chunks)
		if d.Warnings != nil {
			fmt.Fprintf(w, "         degraded: %v\n", d.Warnings)
		}
	}
}
