package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IDatabase = (*SQLiteDB)(nil)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
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

func (d *SQLiteDB) createTables() error {
	// Daily bars keyed by (symbol, date). The table persists across restarts;
	// the incremental fetch strategy depends on it.
	query := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT,
			date TEXT,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create daily_prices: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// MergeDailyBars insert-or-replaces each bar by (symbol, date). A row that
// fails is logged and skipped; the rest of the batch continues.
func (d *SQLiteDB) MergeDailyBars(symbol string, bars []models.MDailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, b := range bars {
		_, err := stmt.Exec(symbol, b.DateString(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			d.Logger.Error("Error merging row for %s on %s: %v", symbol, b.DateString(), err)
			continue
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	d.Logger.Info("Merged %d bars for %s", count, symbol)
	return count, nil
}

// -----------------------------------------------------------------------------

// LatestDate returns the most recent stored bar date for a symbol.
func (d *SQLiteDB) LatestDate(symbol string) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := d.DB.QueryRow("SELECT MAX(date) FROM daily_prices WHERE symbol = ?", symbol).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, err
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}

	date, err := time.Parse(models.DateLayout, dateStr.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid stored date %q: %w", dateStr.String, err)
	}
	return date, true, nil
}

// -----------------------------------------------------------------------------

// RangeDailyBars returns stored bars ascending by date.
func (d *SQLiteDB) RangeDailyBars(symbol string, from, to *time.Time) ([]models.MDailyBar, error) {
	query := "SELECT date, open, high, low, close, volume FROM daily_prices WHERE symbol = ?"
	args := []interface{}{symbol}

	if from != nil {
		query += " AND date >= ?"
		args = append(args, from.Format(models.DateLayout))
	}
	if to != nil {
		query += " AND date <= ?"
		args = append(args, to.Format(models.DateLayout))
	}

	query += " ORDER BY date ASC"

	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.MDailyBar
	for rows.Next() {
		var dateStr string
		var b models.MDailyBar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		date, err := time.Parse(models.DateLayout, dateStr)
		if err != nil {
			d.Logger.Error("Skipping row with invalid date %q for %s", dateStr, symbol)
			continue
		}
		b.Symbol = symbol
		b.Date = date
		bars = append(bars, b)
	}

	return bars, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
