// Package testutil contains helper builders and a scripted model used
// across tests to reduce boilerplate when constructing conversation state
// and driving agents without a hosted model. Not intended for production
// usage.
package testutil
