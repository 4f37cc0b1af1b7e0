package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Entry is one recorded round trip.
type Entry struct {
	Seq        int64  `json:"seq"`
	RequestID  string `json:"request_id"`
	Op         string `json:"op"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Section    string `json:"section,omitempty"`
	Outcome    string `json:"outcome"`
	Status     int    `json:"status,omitempty"`
	Message    string `json:"message,omitempty"`
	RecordedAt string `json:"recorded_at,omitempty"`
}

// ErrNotFound is returned when no entry matches.
var ErrNotFound = errors.New("journal entry not found")

// Append records an entry. The sequence number must be unique.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO entries (seq, request_id, op, method, path, section, outcome, status, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Seq, e.RequestID, e.Op, e.Method, e.Path, e.Section, e.Outcome, e.Status, e.Message)
	if err != nil {
		return fmt.Errorf("append entry seq=%d: %w", e.Seq, err)
	}
	return nil
}

// List returns the most recent limit entries in ascending seq order.
// A limit of zero or less returns every entry.
// Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT seq, request_id, op, method, path, section, outcome, status, message, recorded_at
		FROM (SELECT * FROM entries ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ByRequestID returns the entry recorded for a request id.
func (j *Journal) ByRequestID(ctx context.Context, requestID string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT seq, request_id, op, method, path, section, outcome, status, message, recorded_at
		FROM entries
		WHERE request_id = ?
		ORDER BY seq ASC
		LIMIT 1
	`, requestID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}
	return e, err
}

// LastSeq returns the highest recorded sequence number, or 0 if empty.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM entries`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	err := s.Scan(&e.Seq, &e.RequestID, &e.Op, &e.Method, &e.Path, &e.Section, &e.Outcome, &e.Status, &e.Message, &e.RecordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	return e, nil
}
