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
	"fmt"
)

// ErrValidation is the root of every input validation failure.
// Validation failures are the only errors surfaced to query callers.
var ErrValidation = errors.New("validation failed")

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = fmt.Errorf("%w: invalid document", ErrValidation)

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = fmt.Errorf("%w: invalid chunk", ErrValidation)

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyText indicates the text field is empty or blank.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyID indicates an identifier is missing.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrInvalidID indicates an identifier contains a reserved character.
	ErrInvalidID = errors.New("id contains reserved character")

	// ErrInvalidSectionType indicates an unknown SectionType value.
	ErrInvalidSectionType = errors.New("invalid section type")

	// ErrInvalidStrategy indicates an unknown retrieval strategy.
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidLevel indicates a chunk level other than 1 or 2.
	ErrInvalidLevel = errors.New("invalid level")
)
