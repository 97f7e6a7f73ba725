package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager abstracts raw HTTP retrieval.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// Get performs a GET request against the URL with the given query
	// parameters and returns the response body. The request honors the
	// configured timeout and is abandoned when ctx is cancelled.
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}
