package driven

import "context"

// TokenProvider supplies access tokens for the index endpoint.
// Token acquisition is outside this module's scope - implementations wrap an
// opaque credential source and handle refresh.
type TokenProvider interface {
	// GetAccessToken returns a valid access token.
	GetAccessToken(ctx context.Context) (string, error)
}
