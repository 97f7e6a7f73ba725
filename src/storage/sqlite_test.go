package storage

import (
	"path/filepath"
	"testing"

	"mse-harvester/src/logger"
	"mse-harvester/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestDB(t *testing.T) *AsyncSQLiteDB {
	t.Helper()

	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(t.TempDir(), "stock_history.db"),
		},
	}

	db, err := NewAsyncSQLiteDB(cfg, logger.NewLogger("ERROR", "test-db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

// -----------------------------------------------------------------------------

func record(date, price string) models.MHistoryRecord {
	return models.MHistoryRecord{
		Date:          date,
		Price:         price,
		Max:           price,
		Min:           price,
		Avg:           price,
		PercentChange: "0,00",
		Quantity:      "10",
		BestTurnover:  price,
		TotalTurnover: price,
	}
}

// -----------------------------------------------------------------------------

func countRows(t *testing.T, db *AsyncSQLiteDB, code string) int {
	t.Helper()
	var n int
	err := db.DB.QueryRow("SELECT COUNT(*) FROM stock_history WHERE publisher_code = ?", code).Scan(&n)
	require.NoError(t, err)
	return n
}

// -----------------------------------------------------------------------------

func Test_UpsertRecords_Idempotent(t *testing.T) {
	db := newTestDB(t)

	r := record("02.01.2024", "1 000.00")
	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{r}))
	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{r}))

	assert.Equal(t, 1, countRows(t, db, "ALK"), "repeated identical upsert must not duplicate the row")

	var price string
	err := db.DB.QueryRow("SELECT price FROM stock_history WHERE publisher_code = ? AND date = ?", "ALK", "02.01.2024").Scan(&price)
	require.NoError(t, err)
	assert.Equal(t, "1 000.00", price)
}

// -----------------------------------------------------------------------------

func Test_UpsertRecords_LastWriteWins(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{record("02.01.2024", "1 000.00")}))
	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{record("02.01.2024", "1 100.00")}))

	assert.Equal(t, 1, countRows(t, db, "ALK"))

	var price, maxPrice string
	err := db.DB.QueryRow("SELECT price, max_price FROM stock_history WHERE publisher_code = ? AND date = ?", "ALK", "02.01.2024").Scan(&price, &maxPrice)
	require.NoError(t, err)
	assert.Equal(t, "1 100.00", price, "same-key write must fully replace the earlier row")
	assert.Equal(t, "1 100.00", maxPrice)
}

// -----------------------------------------------------------------------------

func Test_UpsertRecords_SeparatePublishers(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{record("02.01.2024", "1.00")}))
	require.NoError(t, db.UpsertRecords("KMB", []models.MHistoryRecord{record("02.01.2024", "2.00")}))

	assert.Equal(t, 1, countRows(t, db, "ALK"))
	assert.Equal(t, 1, countRows(t, db, "KMB"))
}

// -----------------------------------------------------------------------------

func Test_MaxDate_CalendarSemantics(t *testing.T) {
	db := newTestDB(t)

	// Lexically "31.12.2023" > "02.01.2024"; calendar order is the reverse.
	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{
		record("31.12.2023", "1.00"),
		record("02.01.2024", "2.00"),
	}))

	date, ok, err := db.MaxDate("ALK")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "02.01.2024", date)
}

// -----------------------------------------------------------------------------

func Test_MaxDate_SkipsUnparsableDates(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{
		record("unknown-date", "1.00"),
	}))

	_, ok, err := db.MaxDate("ALK")
	require.NoError(t, err)
	assert.False(t, ok, "raw-text fallback dates cannot define a watermark")

	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{
		record("15.02.2024", "2.00"),
	}))

	date, ok, err := db.MaxDate("ALK")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "15.02.2024", date)
}

// -----------------------------------------------------------------------------

func Test_MaxDate_UnknownPublisher(t *testing.T) {
	db := newTestDB(t)

	_, ok, err := db.MaxDate("NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

// -----------------------------------------------------------------------------

func Test_Initialize_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{record("02.01.2024", "1.00")}))

	// A second startup against the same file must keep the data.
	require.NoError(t, db.Initialize())
	assert.Equal(t, 1, countRows(t, db, "ALK"))
}

// -----------------------------------------------------------------------------

func Test_Publishers_RegisterAndReplace(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.RegisterPublishers([]string{"ALK", "KMB"}))
	require.NoError(t, db.RegisterPublishers([]string{"KMB", "TEL"}))

	codes, err := db.ListPublishers()
	require.NoError(t, err)
	assert.Equal(t, []string{"ALK", "KMB", "TEL"}, codes, "register must dedupe and keep existing codes")

	// Destructive rebuild replaces the registry wholesale.
	require.NoError(t, db.ReplacePublishers([]string{"GRNT"}))

	codes, err = db.ListPublishers()
	require.NoError(t, err)
	assert.Equal(t, []string{"GRNT"}, codes)
}

// -----------------------------------------------------------------------------

func Test_ReplacePublishers_LeavesHistoryIntact(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.RegisterPublishers([]string{"ALK"}))
	require.NoError(t, db.UpsertRecords("ALK", []models.MHistoryRecord{record("02.01.2024", "1.00")}))

	require.NoError(t, db.ReplacePublishers([]string{"KMB"}))

	assert.Equal(t, 1, countRows(t, db, "ALK"), "registry rebuild must not touch harvested history")
}
