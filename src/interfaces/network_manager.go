package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for the generic HTTP accessor.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a GET request for path (relative to the backend base URL).
	// Parameters with empty values are never sent.
	Get(ctx context.Context, path string, params map[string]string) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Post performs a POST request; body is JSON-encoded when non-nil.
	Post(ctx context.Context, path string, params map[string]string, body interface{}) ([]byte, error)
}
