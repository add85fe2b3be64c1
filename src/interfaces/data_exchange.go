package interfaces

import "investment-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger pushes view state to external listeners (websocket hub).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a view state to every subscribed listener.
	Broadcast(state models.MViewState)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
