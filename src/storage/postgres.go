package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mse-harvester/src/logger"
	"mse-harvester/src/models"
	"mse-harvester/src/utils"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema is named after the executable so several harvesters can
	// share one cluster.
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables is idempotent; startup never drops harvested data.
func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			publisher_code TEXT PRIMARY KEY
		);
	`, d.table("publishers"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create publishers: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
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
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (publisher_code, date)
		);
	`, d.table("stock_history"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create stock_history: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) UpsertRecords(publisherCode string, records []models.MHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (publisher_code, date, price, max_price, min_price, avg_price, percent_change, quantity, best_turnover, total_turnover, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (publisher_code, date) DO UPDATE SET
			price = EXCLUDED.price,
			max_price = EXCLUDED.max_price,
			min_price = EXCLUDED.min_price,
			avg_price = EXCLUDED.avg_price,
			percent_change = EXCLUDED.percent_change,
			quantity = EXCLUDED.quantity,
			best_turnover = EXCLUDED.best_turnover,
			total_turnover = EXCLUDED.total_turnover,
			updated_at = EXCLUDED.updated_at
	`, d.table("stock_history"))

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		_, err := stmt.Exec(publisherCode, r.Date, r.Price, r.Max, r.Min, r.Avg, r.PercentChange, r.Quantity, r.BestTurnover, r.TotalTurnover, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

// MaxDate parses stored dates and returns the calendar max; see the
// sqlite backend for why this is not a SQL MAX.
func (d *PostgresDB) MaxDate(publisherCode string) (string, bool, error) {
	query := fmt.Sprintf("SELECT date FROM %s WHERE publisher_code = $1", d.table("stock_history"))
	rows, err := d.DB.Query(query, publisherCode)
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

func (d *PostgresDB) ListPublishers() ([]string, error) {
	query := fmt.Sprintf("SELECT publisher_code FROM %s ORDER BY publisher_code", d.table("publishers"))
	rows, err := d.DB.Query(query)
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

func (d *PostgresDB) RegisterPublishers(codes []string) error {
	if len(codes) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (publisher_code) VALUES ($1)
		ON CONFLICT (publisher_code) DO NOTHING
	`, d.table("publishers"))

	stmt, err := tx.Prepare(query)
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

// ReplacePublishers is the destructive discovery-refresh rebuild; see
// the sqlite backend.
func (d *PostgresDB) ReplacePublishers(codes []string) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", d.table("publishers"))); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (publisher_code) VALUES ($1)
		ON CONFLICT (publisher_code) DO NOTHING
	`, d.table("publishers"))

	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
