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
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty and must not contain ':' (used as key separator)
//   - RawText must not be blank
//   - PublicationDate must not be in the future
//
// NOT validated:
//   - LegalArea and LegalNorms (free-form metadata)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateDocumentID(doc.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if strings.TrimSpace(doc.RawText) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if !IsValidTimestamp(doc.PublicationDate) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateDocumentID checks that a document ID can be embedded in unit IDs
// and storage keys.
func ValidateDocumentID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.ContainsRune(id, ':') {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidateChunk validates a Chunk before it is written to a vector store.
//
// Validation rules:
//   - ID, DocumentID and SegmentID must not be empty
//   - Level must be LevelSegment or LevelChunk
//   - SectionType must be known
//   - Text must not be empty
//   - TokenCount must not be negative
//
// NOT validated:
//   - Embedding (may be empty until the chunk is embedded)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.ID == "" || chunk.DocumentID == "" || chunk.SegmentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyID)
	}
	if chunk.Level != LevelSegment && chunk.Level != LevelChunk {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChunk, ErrInvalidLevel, chunk.Level)
	}
	if err := ValidateSectionType(chunk.SectionType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}
	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}
	if chunk.TokenCount < 0 {
		return fmt.Errorf("%w: negative token count %d", ErrInvalidChunk, chunk.TokenCount)
	}
	return nil
}

// ValidateSectionType validates that a SectionType has a known value.
func ValidateSectionType(s SectionType) error {
	if s < SectionUnclassified || s > SectionConclusion {
		return fmt.Errorf("%w: value %d", ErrInvalidSectionType, s)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
