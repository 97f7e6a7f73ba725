package storage

import (
	"database/sql"
	"fmt"
	"time"

	"mse-harvester/src/logger"
	"mse-harvester/src/models"
	"mse-harvester/src/utils"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables is idempotent: startup must never destroy harvested data.
func (d *AsyncSQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS publishers (
			publisher_code TEXT PRIMARY KEY
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create publishers: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS stock_history (
			publisher_code TEXT,
			date TEXT,
			price TEXT,
			max_price TEXT,
			min_price TEXT,
			avg_price TEXT,
			percent_change TEXT,
			quantity TEXT,
			best_turnover TEXT,
			total_turnover TEXT,
			PRIMARY KEY (publisher_code, date)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_history: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// UpsertRecords inserts or fully replaces the publisher's rows keyed by
// (publisher_code, date) in one transaction. Replaying identical
// records is a no-op in effect.
func (d *AsyncSQLiteDB) UpsertRecords(publisherCode string, records []models.MHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_history (publisher_code, date, price, max_price, min_price, avg_price, percent_change, quantity, best_turnover, total_turnover)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (publisher_code, date) DO UPDATE SET
			price = excluded.price,
			max_price = excluded.max_price,
			min_price = excluded.min_price,
			avg_price = excluded.avg_price,
			percent_change = excluded.percent_change,
			quantity = excluded.quantity,
			best_turnover = excluded.best_turnover,
			total_turnover = excluded.total_turnover
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(publisherCode, r.Date, r.Price, r.Max, r.Min, r.Avg, r.PercentChange, r.Quantity, r.BestTurnover, r.TotalTurnover)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

// MaxDate returns the calendar-latest stored session date for the
// publisher. Dates are compared parsed, never as text: SQL MAX over
// DD.MM.YYYY strings orders by day-of-month first. Rows whose date kept
// the raw-text normalization fallback are skipped.
func (d *AsyncSQLiteDB) MaxDate(publisherCode string) (string, bool, error) {
	rows, err := d.DB.Query("SELECT date FROM stock_history WHERE publisher_code = ?", publisherCode)
	if err != nil {
		return "", false, err
	}
	defer rows.Close()

	var max time.Time
	found := false
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return "", false, err
		}
		t, err := utils.ParseSessionDate(raw)
		if err != nil {
			continue
		}
		if !found || t.After(max) {
			max = t
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}

	if !found {
		return "", false, nil
	}
	return utils.FormatSessionDate(max), true, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) ListPublishers() ([]string, error) {
	rows, err := d.DB.Query("SELECT publisher_code FROM publishers ORDER BY publisher_code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// -----------------------------------------------------------------------------

// RegisterPublishers records newly discovered codes without touching
// existing ones. Used by the routine sync path.
func (d *AsyncSQLiteDB) RegisterPublishers(codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO publishers (publisher_code) VALUES (?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, code := range codes {
		if _, err := stmt.Exec(code); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

// ReplacePublishers wipes the registry and reinserts the given codes.
// Destructive full rebuild: only the explicit admin flag reaches this,
// never the incremental sync path.
func (d *AsyncSQLiteDB) ReplacePublishers(codes []string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM publishers"); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO publishers (publisher_code) VALUES (?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, code := range codes {
		if _, err := stmt.Exec(code); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
