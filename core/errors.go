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

import "errors"

// Domain validation errors
var (
	// ErrInvalidJob indicates an IndexJob failed validation.
	ErrInvalidJob = errors.New("invalid index job")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidContentBaseID indicates the content base id is not a UUID.
	ErrInvalidContentBaseID = errors.New("content base id must be a UUID")

	// ErrInvalidFileID indicates the file id is not a UUID.
	ErrInvalidFileID = errors.New("file id must be a UUID")

	// ErrEmptyFilename indicates the filename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrUnsupportedExtension indicates the file extension has no registered loader.
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrInvalidSourceKind indicates an invalid SourceKind value.
	ErrInvalidSourceKind = errors.New("invalid source kind")

	// ErrEmptySource indicates the job carries no storage key, URL, or text.
	ErrEmptySource = errors.New("source cannot be empty")
)
