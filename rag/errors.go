package rag

import "errors"

var (
	// ErrEmptyDocument is returned when there is no text to index.
	ErrEmptyDocument = errors.New("rag: empty document")

	// ErrMissingDocument is returned by LoadDocument when the source file does not exist.
	ErrMissingDocument = errors.New("rag: source document not found")

	// ErrStaleIndex is returned by Load when a persisted index was built from different input.
	ErrStaleIndex = errors.New("rag: persisted index does not match source")
)
