// Package artifact defines Store, the destination the drafter's save tool
// writes finished documents to, plus in-memory and local directory backends.
// An S3 backend lives in artifact/s3.
//
// Names are forward slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
package artifact
