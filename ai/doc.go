// Package ai defines the interfaces to the hosted ML collaborators: text
// embedding and candidate reranking. Concrete clients live in the openai
// and cohere subpackages; deterministic test doubles live in mock.
package ai
