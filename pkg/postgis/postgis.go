// Package postgis stores surveyed test points in a PostGIS table and serves
// them back as a ground truth source.
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/pkg/models"
)

const batchSize = 10000

// Config holds connection settings
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString returns the lib/pq keyword/value connection string
func (c Config) ConnString() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quote(c.Host), c.Port, quote(c.User), quote(c.Password), quote(c.DBName), sslmode)
}

// Redacted is the connection target without credentials, for logs
func (c Config) Redacted() string {
	u := url.URL{Scheme: "postgres", Host: fmt.Sprintf("%s:%d", c.Host, c.Port), Path: c.DBName}
	if c.User != "" {
		u.User = url.User(c.User)
	}
	return u.String()
}

// quote escapes a connection string value when it contains spaces or quotes
func quote(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := []rune{'\''}
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}

// Store is a PostGIS-backed test point table
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects and verifies the connection
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Redacted(), err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db, logger: logger}, nil
}

// InitSchema creates the test point table, replacing an existing one when
// reset is set
func (s *Store) InitSchema(ctx context.Context, reset bool) error {
	queries := []string{`CREATE EXTENSION IF NOT EXISTS postgis;`}
	if reset {
		queries = append(queries, `DROP TABLE IF EXISTS test_points;`)
	}
	queries = append(queries, `CREATE TABLE IF NOT EXISTS test_points (
			id TEXT PRIMARY KEY,
			location GEOMETRY(POINTZ, 4326) NOT NULL,
			building TEXT NOT NULL DEFAULT '',
			floor TEXT NOT NULL DEFAULT ''
		);`)

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

// CreateSpatialIndex creates a GIST index on the location column
func (s *Store) CreateSpatialIndex(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_test_points_location ON test_points USING GIST(location);`); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "ANALYZE test_points;"); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}
	s.logger.Info("Created spatial index", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// BulkInsertTestPoints upserts rows in batched transactions. Identifiers are
// stored trimmed; rows with an empty identifier are skipped and counted.
func (s *Store) BulkInsertTestPoints(ctx context.Context, rows []models.TestPointRow) (inserted, skipped int, err error) {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO test_points (id, location, building, floor)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3, $4), 4326), $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET location = EXCLUDED.location, building = EXCLUDED.building, floor = EXCLUDED.floor
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, batch := range Batches(rows, batchSize) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return inserted, skipped, fmt.Errorf("failed to begin transaction: %w", err)
		}
		txStmt := tx.StmtContext(ctx, stmt)

		for _, r := range batch {
			id := normalizeID(r.ID)
			if id == "" {
				skipped++
				continue
			}
			if _, err := txStmt.ExecContext(ctx, id, r.Lon, r.Lat, r.AltitudeEllipsoid, r.Building, r.Floor); err != nil {
				tx.Rollback()
				return inserted, skipped, fmt.Errorf("failed to insert point %s: %w", id, err)
			}
			inserted++
		}

		if err := tx.Commit(); err != nil {
			return inserted, skipped, fmt.Errorf("failed to commit batch: %w", err)
		}
		s.logger.Debug("Committed batch", zap.Int("rows", len(batch)), zap.Int("inserted", inserted))
	}
	return inserted, skipped, nil
}

// Batches splits rows into consecutive chunks of at most size
func Batches(rows []models.TestPointRow, size int) [][]models.TestPointRow {
	if size <= 0 {
		size = batchSize
	}
	var out [][]models.TestPointRow
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}

const selectColumns = `SELECT id, ST_Y(location), ST_X(location), COALESCE(ST_Z(location), 0), building, floor FROM test_points`

// QueryBox returns the test points inside box
func (s *Store) QueryBox(ctx context.Context, box models.BoundingBox) ([]models.TestPointRow, error) {
	return s.query(ctx, selectColumns+` WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326) ORDER BY id`,
		box.BottomLeft.Lon, box.BottomLeft.Lat, box.TopRight.Lon, box.TopRight.Lat)
}

// TestPoints returns every stored test point, so a Store is a ground truth source
func (s *Store) TestPoints(ctx context.Context) ([]models.TestPointRow, error) {
	return s.query(ctx, selectColumns+` ORDER BY id`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]models.TestPointRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []models.TestPointRow
	for rows.Next() {
		var r models.TestPointRow
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon, &r.AltitudeEllipsoid, &r.Building, &r.Floor); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// Count returns the number of stored test points
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test_points").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// TableStats describes the size of the test point table
type TableStats struct {
	DatabaseSize string
	TableSize    string
	IndexSize    string
	RowCount     int64
}

// Stats returns database and table sizes
func (s *Store) Stats(ctx context.Context) (TableStats, error) {
	var st TableStats
	if err := s.db.QueryRowContext(ctx, `SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&st.DatabaseSize); err != nil {
		return st, fmt.Errorf("failed to get database size: %w", err)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			pg_size_pretty(pg_total_relation_size('test_points')),
			pg_size_pretty(pg_indexes_size('test_points'))
	`).Scan(&st.TableSize, &st.IndexSize)
	if err != nil {
		// table might not exist yet
		st.TableSize, st.IndexSize = "0 bytes", "0 bytes"
		return st, nil
	}

	st.RowCount, _ = s.Count(ctx)
	return st, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
