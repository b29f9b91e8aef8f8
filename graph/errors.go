package graph

import "errors"

var (
	// ErrNoEntryPoint is returned by Compile when no valid entry point is set.
	ErrNoEntryPoint = errors.New("graph has no entry point")

	// ErrUnknownNode is returned by Compile when an edge references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownRoute is returned when a router yields a label outside its declared routes.
	ErrUnknownRoute = errors.New("unknown route")

	// ErrDuplicateNode is returned by Compile when a node name is used twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrAborted is returned by Walk when the step callback stops the run.
	ErrAborted = errors.New("graph run aborted")

	// ErrDeadEnd is returned by Compile when a node has no outgoing edge.
	ErrDeadEnd = errors.New("node has no outgoing edge")
)
