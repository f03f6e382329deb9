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


// Package search provides retrieval over indexed content.
//
// The Searcher type runs the query pipeline: vector search against the
// store, deduplication of chunks from the same page, and an optional
// reranking pass over the surviving pages. It also owns content deletion,
// which pages through the stored chunks of a file until none remain.
package search
