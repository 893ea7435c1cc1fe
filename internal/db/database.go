// Package db records emitted advisory packets in SQLite for post-session
// analysis. Recording is a sink hanging off the fanout hub; the engine itself
// keeps nothing beyond its sliding window and the last packet.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pitcall-engine/internal/advisory"
)

// Database wraps the SQLite connection
type Database struct {
	conn *sql.DB
}

// AdvisoryRecord is a persisted advisory packet with its storage metadata.
type AdvisoryRecord struct {
	ID        int64           `json:"id"`
	EmittedAt time.Time       `json:"emitted_at"`
	Packet    advisory.Packet `json:"packet"`
}

// AdvisoryQuery filters advisory history reads.
type AdvisoryQuery struct {
	Status    advisory.Status
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// New creates a new database connection
func New(dbPath string) (*Database, error) {
	// Enable WAL mode and other optimizations via connection string
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000", dbPath)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	db := &Database{conn: conn}

	if err := db.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// initialize creates tables and indexes
func (db *Database) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS advisories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		emitted_at DATETIME NOT NULL,
		lap_distance_m REAL NOT NULL,
		speed_kph REAL NOT NULL,
		t_call REAL NOT NULL,
		t_safe REAL NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_advisories_emitted_at ON advisories(emitted_at);
	CREATE INDEX IF NOT EXISTS idx_advisories_status ON advisories(status);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// InsertAdvisory records a single emitted packet.
func (db *Database) InsertAdvisory(emittedAt time.Time, p advisory.Packet) error {
	query := `
		INSERT INTO advisories (emitted_at, lap_distance_m, speed_kph, t_call, t_safe, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.Exec(query, emittedAt, p.LapDistanceM, p.SpeedKPH, p.TCall, p.TSafe, string(p.Status))
	return err
}

// QueryAdvisories retrieves recorded advisories, most recent first.
func (db *Database) QueryAdvisories(q AdvisoryQuery) ([]AdvisoryRecord, error) {
	var conditions []string
	var args []interface{}

	baseQuery := `
		SELECT id, emitted_at, lap_distance_m, speed_kph, t_call, t_safe, status
		FROM advisories
	`

	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(q.Status))
	}
	if !q.StartTime.IsZero() {
		conditions = append(conditions, "emitted_at >= ?")
		args = append(args, q.StartTime)
	}
	if !q.EndTime.IsZero() {
		conditions = append(conditions, "emitted_at <= ?")
		args = append(args, q.EndTime)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	baseQuery += " ORDER BY emitted_at DESC, id DESC"

	if q.Limit > 0 {
		baseQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			baseQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	}

	rows, err := db.conn.Query(baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AdvisoryRecord
	for rows.Next() {
		var r AdvisoryRecord
		var status string
		if err := rows.Scan(&r.ID, &r.EmittedAt, &r.Packet.LapDistanceM, &r.Packet.SpeedKPH,
			&r.Packet.TCall, &r.Packet.TSafe, &status); err != nil {
			return nil, err
		}
		r.Packet.Status = advisory.Status(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetStats returns aggregate counts over the recorded session history.
func (db *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int64
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM advisories`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_advisories"] = total

	rows, err := db.conn.Query(`SELECT status, COUNT(*) FROM advisories GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		byStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats["by_status"] = byStatus

	if total > 0 {
		var minTSafe, maxSpeed float64
		if err := db.conn.QueryRow(`SELECT MIN(t_safe), MAX(speed_kph) FROM advisories`).Scan(&minTSafe, &maxSpeed); err != nil {
			return nil, err
		}
		stats["min_t_safe"] = minTSafe
		stats["max_speed_kph"] = maxSpeed
	}

	return stats, nil
}

// Record drains packets from a hub subscription into the database until the
// channel closes or ctx is cancelled. Insert failures are returned; the
// caller decides whether recording is fatal for the session.
func (db *Database) Record(ctx context.Context, packets <-chan advisory.Packet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-packets:
			if !ok {
				return nil
			}
			if err := db.InsertAdvisory(time.Now(), p); err != nil {
				return fmt.Errorf("failed to record advisory: %w", err)
			}
		}
	}
}
