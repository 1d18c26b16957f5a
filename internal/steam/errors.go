package steam

import "errors"

var (
	// ErrUnauthorized indicates the Steam API rejected the key or the
	// key lacks permission (HTTP 401/403).
	ErrUnauthorized = errors.New("steam: unauthorized")

	// ErrMalformedResponse indicates a response whose shape doesn't
	// match the documented API envelope.
	ErrMalformedResponse = errors.New("steam: malformed response")

	// ErrPlayerNotFound indicates GetPlayerSummaries returned zero
	// players for the requested id.
	ErrPlayerNotFound = errors.New("steam: player not found")
)
