package interfaces

import "context"

// PhotoFetcher retrieves a higher resolution photo from the remote photo service
type PhotoFetcher interface {
	// Fetch returns the photo bytes, or nil when the service did not deliver one.
	// Failures are logged by the implementation and never returned.
	Fetch(ctx context.Context, email, sizeToken string) []byte
}
