// Package store persists the make/model/trim hierarchy, each entity's raw
// markup and the extracted spec/option records in a single SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// Kind names one of the three hierarchy tables.
type Kind string

const (
	KindMake  Kind = "makes"
	KindModel Kind = "models"
	KindTrim  Kind = "trims"
)

// RecordKind names one of a trim's two record lists.
type RecordKind string

const (
	RecordSpecs   RecordKind = "specs"
	RecordOptions RecordKind = "options"
)

// Store wraps the SQLite connection. SQLite supports a single writer, so
// the pool is capped at one connection; the pipeline serializes writes
// entity by entity anyway.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// Open opens or creates the database at path and bootstraps the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path, log: log}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debug().Str("path", path).Msg("database opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.log.Debug().Str("path", s.path).Msg("closing database")
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS makes (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		url        TEXT NOT NULL,
		raw_markup TEXT,
		UNIQUE (name, url)
	);

	CREATE TABLE IF NOT EXISTS models (
		id         INTEGER PRIMARY KEY,
		make_id    INTEGER NOT NULL,
		name       TEXT NOT NULL,
		url        TEXT NOT NULL,
		year       TEXT,
		raw_markup TEXT,
		FOREIGN KEY (make_id) REFERENCES makes (id),
		UNIQUE (make_id, name, url)
	);

	CREATE TABLE IF NOT EXISTS trims (
		id           INTEGER PRIMARY KEY,
		model_id     INTEGER NOT NULL,
		name         TEXT NOT NULL,
		url          TEXT NOT NULL,
		production   TEXT,
		raw_markup   TEXT,
		specs_json   TEXT,
		options_json TEXT,
		FOREIGN KEY (model_id) REFERENCES models (id),
		UNIQUE (model_id, name, url)
	);

	-- Flattened top-level fields of every record, one row per distinct
	-- field name per trim. Kept for ad-hoc SQL over the extracted data;
	-- the filter command reads the JSON columns instead.
	CREATE TABLE IF NOT EXISTS trim_fields (
		trim_id INTEGER NOT NULL,
		field   TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (trim_id, field),
		FOREIGN KEY (trim_id) REFERENCES trims (id)
	);

	CREATE INDEX IF NOT EXISTS idx_models_make ON models(make_id);
	CREATE INDEX IF NOT EXISTS idx_trims_model ON trims(model_id);
	CREATE INDEX IF NOT EXISTS idx_trim_fields_field ON trim_fields(field);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

func tableName(kind Kind) (string, error) {
	switch kind {
	case KindMake:
		return "makes", nil
	case KindModel:
		return "models", nil
	case KindTrim:
		return "trims", nil
	}
	return "", fmt.Errorf("unknown kind %q", kind)
}

// NextID returns the next sequential id for the table: MAX(id)+1, or 1 for
// an empty table. Ids are unique only within their own kind.
func (s *Store) NextID(ctx context.Context, kind Kind) (int64, error) {
	table, err := tableName(kind)
	if err != nil {
		return 0, err
	}
	var next int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) + 1 FROM %s", table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("next id for %s: %w", table, err)
	}
	return next, nil
}

// InsertMake inserts a make. A unique conflict means the make is already
// stored; it is logged and treated as present.
func (s *Store) InsertMake(ctx context.Context, m *models.Make) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO makes (id, name, url) VALUES (?, ?, ?)",
		m.ID, m.Name, m.ChildrenURL)
	if err != nil {
		return fmt.Errorf("inserting make %q: %w", m.Name, err)
	}
	s.warnIfDuplicate(res, "make", m.Name)
	return nil
}

// InsertModel inserts a model under its make.
func (s *Store) InsertModel(ctx context.Context, m *models.Model) error {
	if m.Make == nil {
		return fmt.Errorf("model %q has no parent make", m.Name)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO models (id, make_id, name, url, year) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.Make.ID, m.Name, m.ChildrenURL, m.Year)
	if err != nil {
		return fmt.Errorf("inserting model %q: %w", m.Name, err)
	}
	s.warnIfDuplicate(res, "model", m.Name)
	return nil
}

// InsertTrim inserts a trim under its model.
func (s *Store) InsertTrim(ctx context.Context, t *models.Trim) error {
	if t.Model == nil {
		return fmt.Errorf("trim %q has no parent model", t.Name)
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO trims (id, model_id, name, url, production) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.Model.ID, t.Name, t.ChildrenURL, t.Production)
	if err != nil {
		return fmt.Errorf("inserting trim %q: %w", t.Name, err)
	}
	s.warnIfDuplicate(res, "trim", t.Name)
	return nil
}

func (s *Store) warnIfDuplicate(res sql.Result, kind, name string) {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Warn().Str(kind, name).Msg("already in the database")
	}
}

// WriteRaw stores the raw markup for an entity.
func (s *Store) WriteRaw(ctx context.Context, kind Kind, id int64, raw string) error {
	table, err := tableName(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET raw_markup = ? WHERE id = ?", table)
	res, err := s.db.ExecContext(ctx, query, raw, id)
	if err != nil {
		return fmt.Errorf("writing raw markup for %s %d: %w", kind, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("writing raw markup for %s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

// ReadRaw returns the stored raw markup for an entity, or "" when none has
// been stored yet. ErrNotFound means the entity itself does not exist.
func (s *Store) ReadRaw(ctx context.Context, kind Kind, id int64) (string, error) {
	table, err := tableName(kind)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf("SELECT raw_markup FROM %s WHERE id = ?", table)
	var raw sql.NullString
	err = s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("reading raw markup for %s %d: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading raw markup for %s %d: %w", kind, id, err)
	}
	return raw.String, nil
}

// WriteRecords persists a trim's record list of the given kind: the JSON
// column holding the full structure, plus one flattened row per top-level
// plain field for the filter queries.
func (s *Store) WriteRecords(ctx context.Context, trimID int64, kind RecordKind, recs []models.Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encoding %s for trim %d: %w", kind, trimID, err)
	}

	var column string
	switch kind {
	case RecordSpecs:
		column = "specs_json"
	case RecordOptions:
		column = "options_json"
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("writing %s for trim %d: %w", kind, trimID, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf("UPDATE trims SET %s = ? WHERE id = ?", column)
	if _, err := tx.ExecContext(ctx, query, string(data), trimID); err != nil {
		return fmt.Errorf("writing %s for trim %d: %w", kind, trimID, err)
	}

	for _, rec := range recs {
		for _, field := range rec.Fields {
			text, ok := field.Value.(models.Text)
			if !ok {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO trim_fields (trim_id, field, value) VALUES (?, ?, ?)
				ON CONFLICT(trim_id, field) DO UPDATE SET value = excluded.value`,
				trimID, field.Key, string(text))
			if err != nil {
				return fmt.Errorf("flattening field %q for trim %d: %w", field.Key, trimID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadAll rebuilds the full in-memory hierarchy, including parsed records
// from the JSON columns.
func (s *Store) LoadAll(ctx context.Context) ([]*models.Make, error) {
	makeRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, url, COALESCE(raw_markup, '') FROM makes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading makes: %w", err)
	}
	defer makeRows.Close()

	var makes []*models.Make
	for makeRows.Next() {
		m := &models.Make{}
		if err := makeRows.Scan(&m.ID, &m.Name, &m.ChildrenURL, &m.RawMarkup); err != nil {
			return nil, fmt.Errorf("scanning make: %w", err)
		}
		makes = append(makes, m)
	}
	if err := makeRows.Err(); err != nil {
		return nil, fmt.Errorf("loading makes: %w", err)
	}

	for _, mk := range makes {
		if err := s.loadModels(ctx, mk); err != nil {
			return nil, err
		}
	}
	return makes, nil
}

func (s *Store) loadModels(ctx context.Context, mk *models.Make) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, url, COALESCE(year, ''), COALESCE(raw_markup, '') FROM models WHERE make_id = ? ORDER BY id",
		mk.ID)
	if err != nil {
		return fmt.Errorf("loading models for %q: %w", mk.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &models.Model{Make: mk}
		if err := rows.Scan(&m.ID, &m.Name, &m.ChildrenURL, &m.Year, &m.RawMarkup); err != nil {
			return fmt.Errorf("scanning model: %w", err)
		}
		mk.Models = append(mk.Models, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading models for %q: %w", mk.Name, err)
	}

	for _, m := range mk.Models {
		if err := s.loadTrims(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadTrims(ctx context.Context, m *models.Model) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, url, COALESCE(production, ''), COALESCE(raw_markup, ''),
		       COALESCE(specs_json, ''), COALESCE(options_json, '')
		FROM trims WHERE model_id = ? ORDER BY id`, m.ID)
	if err != nil {
		return fmt.Errorf("loading trims for %q: %w", m.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		t := &models.Trim{Model: m}
		var specsJSON, optionsJSON string
		if err := rows.Scan(&t.ID, &t.Name, &t.ChildrenURL, &t.Production, &t.RawMarkup,
			&specsJSON, &optionsJSON); err != nil {
			return fmt.Errorf("scanning trim: %w", err)
		}
		if specsJSON != "" {
			if err := json.Unmarshal([]byte(specsJSON), &t.Specs); err != nil {
				s.log.Warn().Err(err).Str("trim", t.Name).Msg("corrupt specs column ignored")
			}
		}
		if optionsJSON != "" {
			if err := json.Unmarshal([]byte(optionsJSON), &t.Options); err != nil {
				s.log.Warn().Err(err).Str("trim", t.Name).Msg("corrupt options column ignored")
			}
		}
		m.Trims = append(m.Trims, t)
	}
	return rows.Err()
}

// Counts summarizes what the database holds.
type Counts struct {
	Makes       int64
	Models      int64
	Trims       int64
	WithRecords int64
}

// Counts returns summary counts for progress reporting.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	steps := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM makes", &c.Makes},
		{"SELECT COUNT(*) FROM models", &c.Models},
		{"SELECT COUNT(*) FROM trims", &c.Trims},
		{"SELECT COUNT(*) FROM trims WHERE specs_json IS NOT NULL AND specs_json != ''", &c.WithRecords},
	}
	for _, step := range steps {
		if err := s.db.QueryRowContext(ctx, step.query).Scan(step.dest); err != nil {
			return Counts{}, fmt.Errorf("counting: %w", err)
		}
	}
	return c, nil
}

// TrimsMissingRaw returns the trims whose raw markup is still empty, for
// the sources command to refetch.
func (s *Store) TrimsMissingRaw(ctx context.Context) ([]*models.Trim, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, url FROM trims WHERE raw_markup IS NULL OR raw_markup = '' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("loading trims without markup: %w", err)
	}
	defer rows.Close()

	var trims []*models.Trim
	for rows.Next() {
		t := &models.Trim{}
		if err := rows.Scan(&t.ID, &t.Name, &t.ChildrenURL); err != nil {
			return nil, fmt.Errorf("scanning trim: %w", err)
		}
		trims = append(trims, t)
	}
	return trims, rows.Err()
}
