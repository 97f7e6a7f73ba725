package interfaces

// -----------------------------------------------------------------------------
// IWatermarkStore is the denormalized publisher -> date snapshot.
// Cache/export only; the IDatabase MaxDate aggregate is authoritative
// whenever the two disagree.
// -----------------------------------------------------------------------------

type IWatermarkStore interface {

	// LoadAll returns the snapshot mapping. A missing or unreadable
	// snapshot yields an empty mapping, never an error.
	LoadAll() map[string]string

	// -----------------------------------------------------------------------------

	// SaveAll atomically replaces the whole snapshot.
	SaveAll(watermarks map[string]string) error
}
