// Package pipeline provides default implementations of the query-side
// collaborators: embedding generation and named-entity extraction.
// Both are opaque functions to the engine; callers may substitute any
// model or service behind the same signatures.
package pipeline

// EmbedFunc is a function that generates a dense vector for a text.
// Embedder.Embed satisfies it as a method value.
type EmbedFunc func(text string) ([]float32, error)

// EntityExtractFunc is a function that extracts named entities from a
// text, returned as plain surface strings. EntityExtractor.Entities
// satisfies it as a method value.
type EntityExtractFunc func(text string) ([]string, error)
