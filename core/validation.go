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


package core

import (
	"fmt"

	"github.com/google/uuid"
)

// SupportedExtensions is the fixed set of source types the pipeline accepts.
// Binary formats are handled by delegated loaders; "urls" marks a URL-set
// source and "txt" doubles as the raw-text extension.
var SupportedExtensions = map[string]bool{
	"txt":  true,
	"md":   true,
	"pdf":  true,
	"doc":  true,
	"docx": true,
	"xls":  true,
	"xlsx": true,
	"urls": true,
}

// ValidateIndexJob validates an IndexJob at the submission boundary.
//
// Validation rules:
//   - ContentBaseID and FileID must be UUIDs
//   - Filename must not be empty for file sources
//   - Extension must be one of the supported set
//   - Source must not be empty
//   - Kind must be a known SourceKind
//
// NOT validated:
//   - TaskID (owned by the upstream platform; opaque here)
//   - LoadType (a hint; unknown values fall back to the default strategy)
func ValidateIndexJob(job *IndexJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if err := ValidateSourceKind(job.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if _, err := uuid.Parse(job.ContentBaseID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrInvalidContentBaseID)
	}

	if _, err := uuid.Parse(job.FileID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrInvalidFileID)
	}

	if job.Kind == SourceKindFile && job.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyFilename)
	}

	if !SupportedExtensions[job.Extension] {
		return fmt.Errorf("%w: %w: %q", ErrInvalidJob, ErrUnsupportedExtension, job.Extension)
	}

	if job.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptySource)
	}

	return nil
}

// ValidateChunk validates a Chunk before it is handed to storage.
//
// Validation rules:
//   - Content must not be empty
//   - Metadata must carry content base and file identity
//
// NOT validated (populated by the storage layer):
//   - Vector (computed at insertion)
//   - Id (0 is valid before a sequence assigns one)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Metadata.ContentBaseID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidContentBaseID)
	}

	if chunk.Metadata.FileID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidFileID)
	}

	return nil
}

// ValidateSourceKind validates that a SourceKind has a valid value.
func ValidateSourceKind(kind SourceKind) error {
	if kind != SourceKindFile && kind != SourceKindURL && kind != SourceKindText {
		return fmt.Errorf("%w: value %d", ErrInvalidSourceKind, kind)
	}
	return nil
}
