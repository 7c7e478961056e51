package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
)

// Compile-time interface check.
var _ interfaces.IDatabase = (*PostgresDB)(nil)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
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

	query := `
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT,
			date DATE,
			open DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			close DOUBLE PRECISION,
			volume BIGINT,
			PRIMARY KEY (symbol, date)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create daily_prices: %w", err)
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

// MergeDailyBars upserts each bar by (symbol, date). A row that fails is
// logged and skipped; the rest of the batch continues. Each row runs under
// its own savepoint: without one, a single failed statement poisons the
// whole Postgres transaction and every following statement is rejected.
func (d *PostgresDB) MergeDailyBars(symbol string, bars []models.MDailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for _, b := range bars {
		if _, err := tx.Exec("SAVEPOINT merge_row"); err != nil {
			return count, err
		}
		if _, err := stmt.Exec(symbol, b.DateString(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			d.Logger.Error("Error merging row for %s on %s: %v", symbol, b.DateString(), err)
			if _, err := tx.Exec("ROLLBACK TO SAVEPOINT merge_row"); err != nil {
				return count, err
			}
			continue
		}
		if _, err := tx.Exec("RELEASE SAVEPOINT merge_row"); err != nil {
			return count, err
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
func (d *PostgresDB) LatestDate(symbol string) (time.Time, bool, error) {
	var date sql.NullTime
	err := d.DB.QueryRow("SELECT MAX(date) FROM daily_prices WHERE symbol = $1", symbol).Scan(&date)
	if err != nil {
		return time.Time{}, false, err
	}
	if !date.Valid {
		return time.Time{}, false, nil
	}
	return date.Time.UTC().Truncate(24 * time.Hour), true, nil
}

// -----------------------------------------------------------------------------

// RangeDailyBars returns stored bars ascending by date.
func (d *PostgresDB) RangeDailyBars(symbol string, from, to *time.Time) ([]models.MDailyBar, error) {
	query := "SELECT date, open, high, low, close, volume FROM daily_prices WHERE symbol = $1"
	args := []interface{}{symbol}

	if from != nil {
		args = append(args, from.Format(models.DateLayout))
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.Format(models.DateLayout))
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += " ORDER BY date ASC"

	rows, err := d.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.MDailyBar
	for rows.Next() {
		var date time.Time
		var b models.MDailyBar
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Symbol = symbol
		b.Date = date.UTC().Truncate(24 * time.Hour)
		bars = append(bars, b)
	}

	return bars, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
