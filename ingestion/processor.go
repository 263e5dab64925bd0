// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/lexis/cluster"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/segment"
	"github.com/poiesic/lexis/storage"
	"golang.org/x/sync/errgroup"
)

// processor ingests a single document.
type processor struct {
	store              storage.VectorStore
	documents          storage.DocumentRepository
	segmenter          *segment.Segmenter
	clusterer          *cluster.Clusterer
	collection         string
	segmentConcurrency int
	storeTimeout       time.Duration
	force              bool
	logger             *slog.Logger
}

// process runs one document through segmentation, clustering and storage.
// Failures are reported in the returned DocumentReport.
func (p *processor) process(ctx context.Context, doc *core.Document) DocumentReport {
	started := time.Now()
	report := DocumentReport{Status: StatusFailed}
	if doc != nil {
		report.DocumentID = doc.ID
	}
	defer func() { report.Took = time.Since(started) }()

	if err := core.ValidateDocument(doc); err != nil {
		report.Err = err
		return report
	}
	if err := ctx.Err(); err != nil {
		report.Err = err
		return report
	}

	fingerprint := core.Fingerprint(doc)
	existing, err := p.loadRecord(ctx, doc.ID)
	if err != nil {
		report.Err = err
		return report
	}
	if existing != nil && existing.Fingerprint == fingerprint && !p.force {
		p.logger.Debug("document unchanged, skipping", "document", doc.ID)
		report.Status = StatusSkipped
		report.Segments = len(existing.Segments)
		report.Chunks = len(existing.ChunkIDs)
		return report
	}

	segmented, err := p.segmenter.Segment(doc)
	if err != nil {
		report.Err = err
		return report
	}
	report.Strategy = segmented.Strategy
	report.Segments = len(segmented.Segments)
	var warnings []error
	if segmented.Fallback {
		warnings = append(warnings, segmented.Err)
	}

	results, err := p.cluster(ctx, segmented.Segments)
	if err != nil {
		report.Err = err
		return report
	}

	var chunks []*core.Chunk
	next := 0
	for _, result := range results {
		next = cluster.AssignIDs(doc.ID, result.Chunks, next)
		chunks = append(chunks, result.Chunks...)
		if result.Err != nil {
			warnings = append(warnings, result.Err)
		}
	}

	if existing != nil {
		// A cleared fingerprint makes a failed supersede retryable; the
		// record tracks every chunk ID that may be written from here on.
		pending := *existing
		pending.Fingerprint = ""
		pending.ChunkIDs = mergeIDs(existing.ChunkIDs, chunks)
		if err := p.saveRecord(ctx, &pending); err != nil {
			report.Err = err
			return report
		}
		existing = &pending
	}
	if err := p.upsert(ctx, chunks); err != nil {
		report.Err = err
		return report
	}
	if existing != nil {
		stale := staleIDs(existing.ChunkIDs, chunks)
		removed, err := p.deleteChunks(ctx, stale)
		if err != nil {
			report.Err = err
			return report
		}
		p.logger.Info("superseding previous version", "document", doc.ID, "removed", removed)
	}

	record := &core.DocumentRecord{
		ID:              doc.ID,
		Fingerprint:     fingerprint,
		PublicationDate: doc.PublicationDate,
		LegalArea:       doc.LegalArea,
		LegalNorms:      doc.LegalNorms,
		Segments:        make([]core.Segment, len(segmented.Segments)),
		ChunkIDs:        make([]string, len(chunks)),
		Degraded:        len(warnings) > 0,
		IngestedAt:      time.Now().UTC(),
	}
	for i, seg := range segmented.Segments {
		record.Segments[i] = *seg
	}
	for i, chunk := range chunks {
		record.ChunkIDs[i] = chunk.ID
	}
	if err := p.saveRecord(ctx, record); err != nil {
		report.Err = err
		return report
	}

	report.Status = StatusIngested
	report.Chunks = len(chunks)
	report.Degraded = record.Degraded
	report.Warnings = errors.Join(warnings...)
	p.logger.Info("document ingested",
		"document", doc.ID,
		"strategy", report.Strategy,
		"segments", report.Segments,
		"chunks", report.Chunks,
		"degraded", report.Degraded)
	return report
}

// cluster chunks all segments concurrently. Results are in segment order.
func (p *processor) cluster(ctx context.Context, segments []*core.Segment) ([]*cluster.Result, error) {
	results := make([]*cluster.Result, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.segmentConcurrency)
	for i, seg := range segments {
		g.Go(func() error {
			result, err := p.clusterer.Cluster(gctx, seg)
			if err != nil {
				return fmt.Errorf("cluster segment %s: %w", seg.ID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *processor) loadRecord(ctx context.Context, id string) (*core.DocumentRecord, error) {
	ctx, cancel := p.storeContext(ctx)
	defer cancel()
	record, err := p.documents.GetDocument(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return record, err
}

func (p *processor) saveRecord(ctx context.Context, record *core.DocumentRecord) error {
	ctx, cancel := p.storeContext(ctx)
	defer cancel()
	return p.documents.SaveDocument(ctx, record)
}

func (p *processor) deleteChunks(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := p.storeContext(ctx)
	defer cancel()
	return p.store.Delete(ctx, p.collection, ids...)
}

// mergeIDs returns ids followed by the chunk IDs not already in it.
func mergeIDs(ids []string, chunks []*core.Chunk) []string {
	merged := slices.Clone(ids)
	for _, chunk := range chunks {
		if !slices.Contains(merged, chunk.ID) {
			merged = append(merged, chunk.ID)
		}
	}
	return merged
}

// staleIDs returns the ids that no chunk carries any more.
func staleIDs(ids []string, chunks []*core.Chunk) []string {
	current := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		current[chunk.ID] = struct{}{}
	}
	var stale []string
	for _, id := range ids {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}

func (p *processor) upsert(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ctx, cancel := p.storeContext(ctx)
	defer cancel()
	return p.store.Upsert(ctx, p.collection, chunks...)
}

func (p *processor) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.storeTimeout)
}
