package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

type Subscriber struct {
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type MoverAlert struct {
	ID        int64   `json:"id"`
	TS        int64   `json:"ts"`
	MarketID  string  `json:"market_id"`
	Question  string  `json:"question"`
	Delta     float64 `json:"delta"`
	Attention float64 `json:"attention"`
	CreatedAt string  `json:"created_at"`
}

func Open(path string) (*Store, error) {
	if path == "" {
		path = "data/app.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=3000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			created_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS mover_alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			market_id TEXT NOT NULL,
			question TEXT,
			delta REAL,
			attention REAL,
			created_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_mover_alerts_ts ON mover_alerts(ts);`,
		`CREATE INDEX IF NOT EXISTS idx_mover_alerts_market ON mover_alerts(market_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var ErrDuplicateEmail = fmt.Errorf("email already subscribed")

func (s *Store) InsertSubscriber(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is empty")
	}
	_, err := s.db.Exec(
		`INSERT INTO subscribers (email, created_at) VALUES (?, ?)`,
		email, nowUTC(),
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (s *Store) ListSubscribers() ([]Subscriber, error) {
	rows, err := s.db.Query(`SELECT email, created_at FROM subscribers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.Email, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) InsertMoverAlert(a MoverAlert) error {
	if a.MarketID == "" {
		return fmt.Errorf("market_id is empty")
	}
	if a.TS == 0 {
		a.TS = time.Now().Unix()
	}
	_, err := s.db.Exec(
		`INSERT INTO mover_alerts (ts, market_id, question, delta, attention, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.TS, a.MarketID, a.Question, a.Delta, a.Attention, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert mover alert: %w", err)
	}
	return nil
}

func (s *Store) QueryMoverAlerts(limit, offset int) ([]MoverAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.Query(
		`SELECT id, ts, market_id, question, delta, attention, created_at
		 FROM mover_alerts ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query mover alerts: %w", err)
	}
	defer rows.Close()

	var out []MoverAlert
	for rows.Next() {
		var a MoverAlert
		if err := rows.Scan(&a.ID, &a.TS, &a.MarketID, &a.Question, &a.Delta, &a.Attention, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mover alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
