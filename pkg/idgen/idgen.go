// Package idgen provides opaque id generation for players, sessions, games
// and connections. The orchestration layer depends only on the RandomIdSource
// interface; this package supplies the production implementation.
package idgen

import "github.com/google/uuid"

// RandomIdSource is the external collaborator the orchestration layer
// consumes for opaque id generation.
type RandomIdSource interface {
	// NewID returns a fresh opaque identifier.
	NewID() string
	// NewShortID returns a fresh short identifier, suitable for request ids
	// that are echoed back over the wire on every response.
	NewShortID() string
}

// UUIDSource generates RFC 4122 ids via google/uuid.
type UUIDSource struct{}

var _ RandomIdSource = UUIDSource{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}

func (UUIDSource) NewShortID() string {
	full := uuid.New()
	return full.String()[:8]
}
