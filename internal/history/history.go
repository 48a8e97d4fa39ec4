// Package history persists closed notifications to a local sqlite database
// so they can be reviewed after their popups are gone.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/adrg/xdg"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Record is one archived notification.
type Record struct {
	ID             string    `json:"id"` // ULID, sortable by archive time
	NotificationID uint32    `json:"notification_id"`
	AppName        string    `json:"app_name"`
	AppIcon        string    `json:"app_icon,omitempty"`
	Summary        string    `json:"summary"`
	Body           string    `json:"body,omitempty"`
	Urgency        int       `json:"urgency"`
	Reason         uint32    `json:"reason"`
	ClosedAt       time.Time `json:"closed_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id              TEXT PRIMARY KEY,
	notification_id INTEGER NOT NULL,
	app_name        TEXT NOT NULL,
	app_icon        TEXT NOT NULL DEFAULT '',
	summary         TEXT NOT NULL,
	body            TEXT NOT NULL DEFAULT '',
	urgency         INTEGER NOT NULL,
	reason          INTEGER NOT NULL,
	closed_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_closed_at ON notifications (closed_at);
CREATE INDEX IF NOT EXISTS idx_notifications_app_name ON notifications (app_name);
`

// Store is a sqlite-backed notification archive.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	entropy *ulid.MonotonicEntropy
}

// DefaultPath returns the XDG data path for the history database, creating
// parent directories as needed.
func DefaultPath() (string, error) {
	return xdg.DataFile("notid/history.db")
}

// Open opens (or creates) the history database at path. An empty path uses
// the XDG default location.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve history path: %w", err)
		}
		path = p
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// sqlite allows one writer; keep the pool honest
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	logger.Debug("history store opened", "path", path)
	return &Store{
		db:      db,
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append archives a closed notification. The record id is generated here.
func (s *Store) Append(r Record) (string, error) {
	if r.ClosedAt.IsZero() {
		r.ClosedAt = time.Now()
	}
	r.ID = ulid.MustNew(ulid.Timestamp(r.ClosedAt), s.entropy).String()

	_, err := s.db.Exec(
		`INSERT INTO notifications
			(id, notification_id, app_name, app_icon, summary, body, urgency, reason, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.NotificationID, r.AppName, r.AppIcon, r.Summary, r.Body,
		r.Urgency, r.Reason, r.ClosedAt.Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to append history record: %w", err)
	}
	return r.ID, nil
}

// List returns the newest records first, at most limit of them. A limit of
// 0 or less returns everything.
func (s *Store) List(limit int) ([]Record, error) {
	q := `SELECT id, notification_id, app_name, app_icon, summary, body, urgency, reason, closed_at
	      FROM notifications ORDER BY closed_at DESC, id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = s.db.Query(q)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var closedAt int64
		if err := rows.Scan(&r.ID, &r.NotificationID, &r.AppName, &r.AppIcon,
			&r.Summary, &r.Body, &r.Urgency, &r.Reason, &closedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		r.ClosedAt = time.Unix(closedAt, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes records older than keep. Returns the number removed.
func (s *Store) Prune(keep time.Duration) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-keep).Unix()
	res, err := s.db.Exec(`DELETE FROM notifications WHERE closed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug("pruned history records", "removed", n)
	}
	return n, nil
}

// Clear removes every record.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM notifications`)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Count returns the number of archived records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}
