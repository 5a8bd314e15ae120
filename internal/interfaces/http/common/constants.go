package common

import "time"

const (
	// MaxRequestBody limits JSON request bodies for favorite/visit endpoints.
	MaxRequestBody = 1 << 16
	// MaxAdminRequestBody limits admin catalog payloads, which carry reviews and opening periods.
	MaxAdminRequestBody = 1 << 20
	// RequestTimeout bounds a single handler's calls to external collaborators.
	RequestTimeout = 5 * time.Second
)
