package ingestion

import (
	"errors"
	"fmt"
	"time"
)

// Status is the outcome of ingesting one document.
type Status string

const (
	StatusIngested Status = "ingested"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// DocumentReport describes what happened to one document of a batch.
type DocumentReport struct {
	DocumentID string
	Status     Status
	Strategy   string // Segmentation strategy that produced the segments
	Segments   int
	Chunks     int
	// Degraded is set when segmentation or clustering had to fall back.
	Degraded bool
	// Warnings joins the fallback causes of a degraded document.
	Warnings error
	// Err is the failure cause of a failed document.
	Err  error
	Took time.Duration
}

// Report summarizes one ingestion batch. Documents are in input order.
type Report struct {
	BatchID   string
	Documents []DocumentReport
	Ingested  int
	Skipped   int
	Failed    int
	Degraded  int
	Chunks    int
	Took      time.Duration
}

func (r *Report) tally() {
	for _, d := range r.Documents {
		switch d.Status {
		case StatusIngested:
			r.Ingested++
			r.Chunks += d.Chunks
			if d.Degraded {
				r.Degraded++
			}
		case StatusSkipped:
			r.Skipped++
		case StatusFailed:
			r.Failed++
		}
	}
}

// Err joins the errors of all failed documents, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, d := range r.Documents {
		if d.Status == StatusFailed && d.Err != nil {
			errs = append(errs, fmt.Errorf("document %q: %w", d.DocumentID, d.Err))
		}
	}
	return errors.Join(errs...)
}
