package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateDocument(t *testing.T) {
	validTime := time.Now().Add(-24 * time.Hour)
	futureTime := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				ID:              "gutachten-1",
				PublicationDate: validTime,
				RawText:         "I. Sachverhalt",
			},
			wantErr: nil,
		},
		{
			name: "valid document without metadata",
			doc: &Document{
				ID:      "gutachten-2",
				RawText: "Text",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty id",
			doc:     &Document{RawText: "Text"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "id with separator",
			doc:     &Document{ID: "a:b", RawText: "Text"},
			wantErr: ErrInvalidID,
		},
		{
			name:    "blank text",
			doc:     &Document{ID: "doc", RawText: " \n\t "},
			wantErr: ErrEmptyText,
		},
		{
			name: "future publication date",
			doc: &Document{
				ID:              "doc",
				PublicationDate: futureTime,
				RawText:         "Text",
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateDocument() error = %v, want a validation error", err)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			ID:          "doc:2:0000",
			SegmentID:   "doc:1:0000",
			DocumentID:  "doc",
			Level:       LevelChunk,
			SectionType: SectionFactPattern,
			Text:        "Der Kläger verlangt Schadensersatz.",
			TokenCount:  8,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Chunk)
		wantErr error
	}{
		{"valid chunk", func(c *Chunk) {}, nil},
		{"valid without embedding", func(c *Chunk) { c.Embedding = nil }, nil},
		{"missing id", func(c *Chunk) { c.ID = "" }, ErrEmptyID},
		{"missing segment", func(c *Chunk) { c.SegmentID = "" }, ErrEmptyID},
		{"bad level", func(c *Chunk) { c.Level = 3 }, ErrInvalidLevel},
		{"bad section type", func(c *Chunk) { c.SectionType = SectionType(42) }, ErrInvalidSectionType},
		{"empty text", func(c *Chunk) { c.Text = "" }, ErrEmptyText},
		{"negative tokens", func(c *Chunk) { c.TokenCount = -1 }, ErrInvalidChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := ValidateChunk(c)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateChunk(nil); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunk(nil) error = %v, want %v", err, ErrInvalidChunk)
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Now().Add(-time.Minute)) {
		t.Error("past timestamp reported invalid")
	}
	if !IsValidTimestamp(time.Time{}) {
		t.Error("zero timestamp reported invalid")
	}
	if IsValidTimestamp(time.Now().Add(time.Hour)) {
		t.Error("future timestamp reported valid")
	}
}
