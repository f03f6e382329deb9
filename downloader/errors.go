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


package downloader

import "errors"

var (
	// ErrNotFound indicates the source object does not exist. Retrying
	// will not help.
	ErrNotFound = errors.New("source object not found")

	// ErrTransient indicates a failure that may succeed on retry, such as
	// a network error or throttling.
	ErrTransient = errors.New("transient download failure")
)
