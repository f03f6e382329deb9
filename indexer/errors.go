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


package indexer

import "errors"

var (
	// ErrStoreRequired is returned when no vector store is provided.
	ErrStoreRequired = errors.New("vector store is required")

	// ErrDownloaderRequired is returned when no downloader is provided.
	ErrDownloaderRequired = errors.New("downloader is required")

	// ErrLoadersRequired is returned when no loader registry is provided.
	ErrLoadersRequired = errors.New("loader registry is required")

	// ErrChunkerRequired is returned when no chunker is provided.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrReporterRequired is returned when no reporter is provided.
	ErrReporterRequired = errors.New("reporter is required")

	// ErrNoChunks indicates extraction produced no indexable chunks.
	ErrNoChunks = errors.New("document produced no chunks")

	// ErrNotVisible indicates saved chunks did not become visible to
	// search before the verification deadline.
	ErrNotVisible = errors.New("saved chunks are not visible")
)
