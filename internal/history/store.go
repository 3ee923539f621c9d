package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/freestyler/internal/db"
)

// ErrNotFound is returned when a generation does not exist.
var ErrNotFound = errors.New("generation not found")

// Store persists generations.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save inserts a generation. An empty ID is replaced by a new UUID and an
// empty status defaults to completed. The stored ID is returned.
func (s *Store) Save(ctx context.Context, g Generation) (string, error) {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Status == "" {
		g.Status = StatusCompleted
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	barsJSON, err := json.Marshal(nonNil(g.Bars))
	if err != nil {
		return "", fmt.Errorf("marshalling bars: %w", err)
	}

	var errText sql.NullString
	if g.Error != "" {
		errText = sql.NullString{String: g.Error, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, created_at, persona, topic, prompt, provider, model,
			output, bars, input_tokens, output_tokens, duration_ms, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID,
		g.CreatedAt.UTC().Format(time.DateTime),
		g.Persona,
		g.Topic,
		g.Prompt,
		g.Provider,
		g.Model,
		g.Output,
		string(barsJSON),
		g.InputTokens,
		g.OutputTokens,
		g.DurationMS,
		string(g.Status),
		errText,
	)
	if err != nil {
		return "", fmt.Errorf("inserting generation: %w", err)
	}
	return g.ID, nil
}

const selectColumns = `SELECT id, created_at, persona, topic, prompt, provider, model,
	output, bars, input_tokens, output_tokens, duration_ms, status, error FROM generations`

// GetByID retrieves a single generation.
func (s *Store) GetByID(ctx context.Context, id string) (*Generation, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	g, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading generation %s: %w", id, err)
	}
	return g, nil
}

// ListFilter controls which generations List returns.
type ListFilter struct {
	Persona string
	Status  Status
	Since   *time.Time
	Limit   int
	Offset  int
}

// List returns generations matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Generation, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Persona != "" {
		clauses = append(clauses, "persona = ? COLLATE NOCASE")
		args = append(args, filter.Persona)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := selectColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		g, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// Count returns the number of stored generations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting generations: %w", err)
	}
	return n, nil
}

// DeleteBefore removes all generations older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM generations WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old generations: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Generation, error) {
	var (
		g        Generation
		ts       string
		barsJSON string
		status   string
		errText  sql.NullString
	)

	err := sc.Scan(
		&g.ID, &ts, &g.Persona, &g.Topic, &g.Prompt, &g.Provider, &g.Model,
		&g.Output, &barsJSON, &g.InputTokens, &g.OutputTokens, &g.DurationMS, &status, &errText,
	)
	if err != nil {
		return nil, err
	}

	g.Status = Status(status)
	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		g.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		g.CreatedAt = t
	}
	if errText.Valid {
		g.Error = errText.String
	}
	if err := json.Unmarshal([]byte(barsJSON), &g.Bars); err != nil {
		g.Bars = nil
	}
	return &g, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
