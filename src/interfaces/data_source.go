package interfaces

import (
	"context"

	"mse-harvester/src/models"
)

// -----------------------------------------------------------------------------
// IDataSource interface for the external exchange collaborator.
// -----------------------------------------------------------------------------

type IDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// DiscoverPublishers retrieves the deduplicated set of tracked
	// publisher codes from the listing page. An empty slice on a
	// transient failure means "nothing to sync", not a fatal error.
	DiscoverPublishers(ctx context.Context) ([]string, error)

	// -----------------------------------------------------------------------------

	// FetchHistory retrieves the raw trading sessions for one publisher
	// over an inclusive date range (canonical DD.MM.YYYY bounds;
	// fromDate may equal toDate). A reachable source with no sessions
	// returns an empty slice and a nil error; transport or HTTP
	// failures return an error.
	FetchHistory(ctx context.Context, publisherCode, fromDate, toDate string) ([]models.MHistoryRecord, error)
}
