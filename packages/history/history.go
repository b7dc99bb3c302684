// Package history records requests and responses in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/abdul-hamid-achik/fetchwrap/packages/hooks"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MaxBodySize is the largest body stored per recording. Longer bodies are
// truncated and flagged.
const MaxBodySize = 64 * 1024

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("recording not found")

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       INTEGER NOT NULL,
	method           TEXT    NOT NULL,
	url              TEXT    NOT NULL,
	request_headers  TEXT    NOT NULL DEFAULT '{}',
	request_body     TEXT    NOT NULL DEFAULT '',
	status_code      INTEGER NOT NULL,
	status           TEXT    NOT NULL DEFAULT '',
	response_headers TEXT    NOT NULL DEFAULT '{}',
	response_body    TEXT    NOT NULL DEFAULT '',
	truncated        INTEGER NOT NULL DEFAULT 0,
	duration_us      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS recordings_created_at ON recordings (created_at);
`

// Recording is one recorded request/response pair.
type Recording struct {
	ID              int64
	Timestamp       time.Time
	Method          string
	URL             string
	RequestHeaders  map[string]string
	RequestBody     string
	StatusCode      int
	Status          string
	ResponseHeaders map[string]string
	ResponseBody    string
	Truncated       bool
	Duration        time.Duration
}

// Store is a SQLite-backed history.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for errors inside the hook.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens or creates the database at path and makes sure the schema exists.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores rec and sets its ID. A zero Timestamp is set to now.
func (s *Store) Record(ctx context.Context, rec *Recording) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	reqHeaders, err := json.Marshal(orEmpty(rec.RequestHeaders))
	if err != nil {
		return fmt.Errorf("encode request headers: %w", err)
	}
	respHeaders, err := json.Marshal(orEmpty(rec.ResponseHeaders))
	if err != nil {
		return fmt.Errorf("encode response headers: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (created_at, method, url, request_headers, request_body,
			status_code, status, response_headers, response_body, truncated, duration_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.Method, rec.URL, string(reqHeaders), rec.RequestBody,
		rec.StatusCode, rec.Status, string(respHeaders), rec.ResponseBody, rec.Truncated,
		rec.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	rec.ID = id
	return nil
}

const selectColumns = `id, created_at, method, url, request_headers, request_body,
	status_code, status, response_headers, response_body, truncated, duration_us`

// List returns up to limit recordings, newest first. A limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Recording, error) {
	query := `SELECT ` + selectColumns + ` FROM recordings ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	recordings := make([]*Recording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recordings = append(recordings, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return recordings, nil
}

// Get returns the recording with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM recordings WHERE id = ?`, id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Clear deletes every recording and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

// Hook returns an after hook that records every response. Failures are
// logged and never fail the request.
func (s *Store) Hook() fetch.AfterHook {
	return func(ctx context.Context, resp *fetch.Response, req *fetch.RequestConfig) (*fetch.Response, error) {
		rec := NewRecording(req, resp)
		if err := s.Record(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.Warn("failed to record history", zap.String("url", resp.URL), zap.Error(err))
		}
		return resp, nil
	}
}

// NewRecording builds a Recording from a finished request, redacting
// sensitive request headers and truncating the response body.
func NewRecording(req *fetch.RequestConfig, resp *fetch.Response) *Recording {
	body, truncated := truncate(resp.Body)
	return &Recording{
		Timestamp:       time.Now(),
		Method:          req.Method,
		URL:             resp.URL,
		RequestHeaders:  hooks.RedactHeaders(req.Headers),
		RequestBody:     req.Body,
		StatusCode:      resp.StatusCode,
		Status:          resp.Status,
		ResponseHeaders: hooks.RedactHeaders(resp.Headers),
		ResponseBody:    body,
		Truncated:       truncated,
		Duration:        resp.Duration,
	}
}

func truncate(body []byte) (string, bool) {
	if len(body) <= MaxBodySize {
		return string(body), false
	}
	return string(body[:MaxBodySize]), true
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecording(row scanner) (*Recording, error) {
	var (
		rec         Recording
		createdAt   int64
		durationUs  int64
		reqHeaders  string
		respHeaders string
	)

	err := row.Scan(&rec.ID, &createdAt, &rec.Method, &rec.URL, &reqHeaders, &rec.RequestBody,
		&rec.StatusCode, &rec.Status, &respHeaders, &rec.ResponseBody, &rec.Truncated, &durationUs)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(reqHeaders), &rec.RequestHeaders); err != nil {
		return nil, fmt.Errorf("decode request headers: %w", err)
	}
	if err := json.Unmarshal([]byte(respHeaders), &rec.ResponseHeaders); err != nil {
		return nil, fmt.Errorf("decode response headers: %w", err)
	}

	rec.Timestamp = time.Unix(0, createdAt)
	rec.Duration = time.Duration(durationUs) * time.Microsecond
	return &rec, nil
}
