// Copyright 2025 Veridex Labs
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

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates invalid query parameters, e.g. a filter
	// with no content base id.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrInvalidCursor indicates a pagination cursor that was not produced
	// by a previous page of the same query.
	ErrInvalidCursor = errors.New("invalid pagination cursor")

	// ErrBatchFailed indicates that a bounded save batch failed partway.
	// The error wraps the underlying cause; ids inserted by earlier batches
	// remain in the store.
	ErrBatchFailed = errors.New("chunk batch save failed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
