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


package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// ErrCorruptRecord indicates an encoded record has an impossible length prefix.
var ErrCorruptRecord = errors.New("corrupt record")

// MUS serializers for persisted records. Field order is part of the on-disk
// format: append new fields at the end only.
var (
	ChunkMUS          = chunkMUS{}
	SegmentMUS        = segmentMUS{}
	DocumentRecordMUS = documentRecordMUS{}
	CheckpointMUS     = checkpointMUS{}
)

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	w := musWriter{bs: bs}
	w.string(c.ID)
	w.string(c.SegmentID)
	w.string(c.DocumentID)
	w.int(int(c.Level))
	w.int(int(c.SectionType))
	w.int(c.StartChar)
	w.int(c.EndChar)
	w.string(c.Text)
	w.int(c.TokenCount)
	w.float64(c.CoherenceScore)
	w.strings(c.LegalNorms)
	w.strings(c.Keywords)
	w.float32s(c.Embedding)
	return w.n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	r := musReader{bs: bs}
	c.ID = r.string()
	c.SegmentID = r.string()
	c.DocumentID = r.string()
	c.Level = Level(r.int())
	c.SectionType = SectionType(r.int())
	c.StartChar = r.int()
	c.EndChar = r.int()
	c.Text = r.string()
	c.TokenCount = r.int()
	c.CoherenceScore = r.float64()
	c.LegalNorms = r.strings()
	c.Keywords = r.strings()
	c.Embedding = r.float32s()
	return c, r.n, r.err
}

func (chunkMUS) Size(c Chunk) (size int) {
	return sizeString(c.ID) +
		sizeString(c.SegmentID) +
		sizeString(c.DocumentID) +
		varint.Int.Size(int(c.Level)) +
		varint.Int.Size(int(c.SectionType)) +
		varint.Int.Size(c.StartChar) +
		varint.Int.Size(c.EndChar) +
		sizeString(c.Text) +
		varint.Int.Size(c.TokenCount) +
		varint.Float64.Size(c.CoherenceScore) +
		sizeStrings(c.LegalNorms) +
		sizeStrings(c.Keywords) +
		sizeFloat32s(c.Embedding)
}

type segmentMUS struct{}

func (segmentMUS) Marshal(s Segment, bs []byte) (n int) {
	w := musWriter{bs: bs}
	w.segment(s)
	return w.n
}

func (segmentMUS) Unmarshal(bs []byte) (s Segment, n int, err error) {
	r := musReader{bs: bs}
	s = r.segment()
	return s, r.n, r.err
}

func (segmentMUS) Size(s Segment) (size int) {
	return sizeSegment(s)
}

type documentRecordMUS struct{}

func (documentRecordMUS) Marshal(d DocumentRecord, bs []byte) (n int) {
	w := musWriter{bs: bs}
	w.string(d.ID)
	w.string(d.Fingerprint)
	w.time(d.PublicationDate)
	w.string(d.LegalArea)
	w.strings(d.LegalNorms)
	w.int(len(d.Segments))
	for _, s := range d.Segments {
		w.segment(s)
	}
	w.strings(d.ChunkIDs)
	w.bool(d.Degraded)
	w.time(d.IngestedAt)
	return w.n
}

func (documentRecordMUS) Unmarshal(bs []byte) (d DocumentRecord, n int, err error) {
	r := musReader{bs: bs}
	d.ID = r.string()
	d.Fingerprint = r.string()
	d.PublicationDate = r.time()
	d.LegalArea = r.string()
	d.LegalNorms = r.strings()
	if count := r.length(); count > 0 {
		d.Segments = make([]Segment, count)
		for i := range d.Segments {
			d.Segments[i] = r.segment()
		}
	}
	d.ChunkIDs = r.strings()
	d.Degraded = r.bool()
	d.IngestedAt = r.time()
	return d, r.n, r.err
}

func (documentRecordMUS) Size(d DocumentRecord) (size int) {
	size = sizeString(d.ID) +
		sizeString(d.Fingerprint) +
		sizeTime(d.PublicationDate) +
		sizeString(d.LegalArea) +
		sizeStrings(d.LegalNorms) +
		varint.Int.Size(len(d.Segments))
	for _, s := range d.Segments {
		size += sizeSegment(s)
	}
	return size +
		sizeStrings(d.ChunkIDs) +
		varint.Int.Size(0) +
		sizeTime(d.IngestedAt)
}

type checkpointMUS struct{}

func (checkpointMUS) Marshal(c Checkpoint, bs []byte) (n int) {
	w := musWriter{bs: bs}
	w.string(c.Processor)
	w.string(c.Collection)
	w.string(c.LastID)
	w.int(c.Processed)
	w.time(c.UpdatedAt)
	return w.n
}

func (checkpointMUS) Unmarshal(bs []byte) (c Checkpoint, n int, err error) {
	r := musReader{bs: bs}
	c.Processor = r.string()
	c.Collection = r.string()
	c.LastID = r.string()
	c.Processed = r.int()
	c.UpdatedAt = r.time()
	return c, r.n, r.err
}

func (checkpointMUS) Size(c Checkpoint) (size int) {
	return sizeString(c.Processor) +
		sizeString(c.Collection) +
		sizeString(c.LastID) +
		varint.Int.Size(c.Processed) +
		sizeTime(c.UpdatedAt)
}

// musWriter marshals fields sequentially into a buffer sized by the
// matching Size function.
type musWriter struct {
	bs []byte
	n  int
}

func (w *musWriter) string(v string) {
	w.n += ord.String.Marshal(v, w.bs[w.n:])
}

func (w *musWriter) int(v int) {
	w.n += varint.Int.Marshal(v, w.bs[w.n:])
}

func (w *musWriter) bool(v bool) {
	if v {
		w.int(1)
		return
	}
	w.int(0)
}

func (w *musWriter) float64(v float64) {
	w.n += varint.Float64.Marshal(v, w.bs[w.n:])
}

func (w *musWriter) time(v time.Time) {
	w.n += varint.Int64.Marshal(v.UnixMicro(), w.bs[w.n:])
}

func (w *musWriter) strings(v []string) {
	w.int(len(v))
	for _, s := range v {
		w.string(s)
	}
}

func (w *musWriter) float32s(v []float32) {
	w.int(len(v))
	for _, f := range v {
		w.n += varint.Float32.Marshal(f, w.bs[w.n:])
	}
}

func (w *musWriter) segment(s Segment) {
	w.string(s.ID)
	w.string(s.DocumentID)
	w.int(int(s.SectionType))
	w.string(s.Heading)
	w.int(s.StartChar)
	w.int(s.EndChar)
	w.string(s.Text)
}

// musReader unmarshals fields sequentially. After the first error every
// read is a no-op returning the zero value.
type musReader struct {
	bs  []byte
	n   int
	err error
}

func (r *musReader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) bool() bool {
	return r.int() != 0
}

func (r *musReader) float64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Float64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *musReader) time() time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

// length reads a collection length. Every element takes at least one byte,
// so a length larger than the remaining input is rejected.
func (r *musReader) length() int {
	count := r.int()
	if r.err != nil {
		return 0
	}
	if count < 0 || count > len(r.bs)-r.n {
		r.err = ErrCorruptRecord
		return 0
	}
	return count
}

func (r *musReader) strings() []string {
	count := r.length()
	if count == 0 {
		return nil
	}
	v := make([]string, count)
	for i := range v {
		v[i] = r.string()
	}
	return v
}

func (r *musReader) float32s() []float32 {
	count := r.length()
	if count == 0 {
		return nil
	}
	v := make([]float32, count)
	for i := range v {
		if r.err != nil {
			return nil
		}
		f, n, err := varint.Float32.Unmarshal(r.bs[r.n:])
		r.n += n
		r.err = err
		v[i] = f
	}
	return v
}

func (r *musReader) segment() (s Segment) {
	s.ID = r.string()
	s.DocumentID = r.string()
	s.SectionType = SectionType(r.int())
	s.Heading = r.string()
	s.StartChar = r.int()
	s.EndChar = r.int()
	s.Text = r.string()
	return s
}

func sizeString(v string) int {
	return ord.String.Size(v)
}

func sizeTime(v time.Time) int {
	return varint.Int64.Size(v.UnixMicro())
}

func sizeStrings(v []string) int {
	size := varint.Int.Size(len(v))
	for _, s := range v {
		size += sizeString(s)
	}
	return size
}

func sizeFloat32s(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

func sizeSegment(s Segment) int {
	return sizeString(s.ID) +
		sizeString(s.DocumentID) +
		varint.Int.Size(int(s.SectionType)) +
		sizeString(s.Heading) +
		varint.Int.Size(s.StartChar) +
		varint.Int.Size(s.EndChar) +
		sizeString(s.Text)
}
