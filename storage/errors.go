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


package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/lexis/core"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable indicates that the backing store could not serve a request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = fmt.Errorf("%w: storage is closed", ErrStoreUnavailable)

	// ErrInvalidQuery indicates invalid query parameters.
	ErrInvalidQuery = fmt.Errorf("%w: invalid query parameters", core.ErrValidation)

	// ErrInvalidCollection indicates an empty collection name or one containing ':'.
	ErrInvalidCollection = fmt.Errorf("%w: invalid collection name", core.ErrValidation)

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)

// ValidateCollection checks that a collection name can be embedded in keys.
func ValidateCollection(collection string) error {
	if collection == "" || strings.ContainsRune(collection, ':') {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

// Unavailable wraps a backend failure as ErrStoreUnavailable. Errors that
// already carry a storage sentinel or a context error are returned as is.
func Unavailable(err error) error {
	if err == nil ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidCollection) ||
		errors.Is(err, ErrSerializationFailed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
