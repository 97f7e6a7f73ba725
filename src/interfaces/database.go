package interfaces

import "mse-harvester/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the durable time-series store.
// One row per (publisher_code, date); a later write for the same key
// fully replaces the earlier one.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema. Idempotent: safe on every startup,
	// never destroys existing data.
	Initialize() error

	// -----------------------------------------------------------------------------

	// UpsertRecords inserts or replaces the publisher's rows in one
	// transaction, keyed by (publisher_code, date).
	UpsertRecords(publisherCode string, records []models.MHistoryRecord) error

	// -----------------------------------------------------------------------------

	// MaxDate returns the calendar-latest stored session date for the
	// publisher in canonical DD.MM.YYYY form. ok is false when the
	// publisher has no stored row with a parsable date.
	MaxDate(publisherCode string) (date string, ok bool, err error)

	// -----------------------------------------------------------------------------

	// ListPublishers returns the registered publisher codes.
	ListPublishers() ([]string, error)

	// -----------------------------------------------------------------------------

	// RegisterPublishers adds newly discovered codes to the registry
	// without touching existing ones. Safe for the routine sync path.
	RegisterPublishers(codes []string) error

	// -----------------------------------------------------------------------------

	// ReplacePublishers wipes the publisher registry and reinserts the
	// given codes. Destructive full rebuild; never called by the
	// incremental sync path.
	ReplacePublishers(codes []string) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
