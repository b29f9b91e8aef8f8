// Package model defines the provider agnostic abstractions for talking to
// chat models.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Carry conversation state as core.Message values so adapters never leak into nodes
//   - Drain a generation into one assistant message (Collect, Invoke)
//   - Retry transient provider failures with exponential backoff (WithRetry)
//
// Providers (model/openai, model/anthropic) implement Model so graph nodes
// stay decoupled from vendor SDKs.
package model
