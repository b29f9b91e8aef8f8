package core

import "errors"

var (
	// ErrConfiguration marks fatal setup mistakes: bad graph wiring, missing
	// source documents, duplicate tools.
	ErrConfiguration = errors.New("configuration error")

	// ErrOrphanToolResult is returned when a tool result has no matching open call.
	ErrOrphanToolResult = errors.New("orphaned tool result")

	// ErrDanglingToolCall is returned when a terminal state still has unresolved calls.
	ErrDanglingToolCall = errors.New("dangling tool call")

	// ErrIterationLimit is returned by IterationLimiter.Increment once the cap is exceeded.
	ErrIterationLimit = errors.New("iteration limit exceeded")
)
