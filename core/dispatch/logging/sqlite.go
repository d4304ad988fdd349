package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists logs to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS dispatch_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        incident_id TEXT,
        emergency_type TEXT,
        record TEXT
    )`,
		`CREATE INDEX IF NOT EXISTS dispatch_logs_incident ON dispatch_logs (incident_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec LogRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatch_logs (ts, incident_id, emergency_type, record) VALUES (?, ?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.IncidentID, string(rec.EmergencyType), string(b))
	return err
}

// Query returns records matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q LogQuery) ([]LogRecord, error) {
	var args []any
	query := `SELECT record FROM dispatch_logs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.IncidentID != "" {
		query += ` AND incident_id = ?`
		args = append(args, q.IncidentID)
	}
	if q.EmergencyType != "" {
		query += ` AND emergency_type = ?`
		args = append(args, string(q.EmergencyType))
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []LogRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r LogRecord
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		// unit filter is applied on the decoded record
		if q.Match(r) {
			res = append(res, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.limit(res), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
