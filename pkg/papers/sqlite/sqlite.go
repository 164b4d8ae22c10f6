// Package sqlite provides a SQLite-backed papers.Store using raw SQL.
// Authors and keywords are stored as JSON arrays alongside the row.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shelfworksco/stacks/pkg/papers"
)

// Store implements papers.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite-backed store. The dbPath can be a file path
// or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS papers (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			authors          TEXT NOT NULL DEFAULT '[]',
			abstract         TEXT NOT NULL DEFAULT '',
			publication_year INTEGER,
			conference       TEXT NOT NULL DEFAULT '',
			journal          TEXT NOT NULL DEFAULT '',
			keywords         TEXT NOT NULL DEFAULT '[]',
			ingested_at      TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating papers table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS paragraphs (
			id              TEXT PRIMARY KEY,
			paper_id        TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			section         TEXT NOT NULL DEFAULT '',
			paragraph_index INTEGER NOT NULL,
			text            TEXT NOT NULL,
			context         TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		return fmt.Errorf("creating paragraphs table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_paragraphs_paper ON paragraphs(paper_id)`)
	if err != nil {
		return fmt.Errorf("creating paragraph index: %w", err)
	}

	return nil
}

// PutPaper stores a paper and its paragraphs in one transaction, replacing
// any previous record with the same id.
func (s *Store) PutPaper(ctx context.Context, paper *papers.Paper, paragraphs []*papers.Paragraph) error {
	if paper == nil {
		return errors.New("cannot store nil paper")
	}
	if paper.ID == "" {
		return errors.New("paper id is required")
	}

	authors, err := json.Marshal(paper.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors: %w", err)
	}
	keywords, err := json.Marshal(paper.Keywords)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}

	ingested := paper.IngestedAt
	if ingested.IsZero() {
		ingested = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO papers (id, title, authors, abstract, publication_year, conference, journal, keywords, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			abstract = excluded.abstract,
			publication_year = excluded.publication_year,
			conference = excluded.conference,
			journal = excluded.journal,
			keywords = excluded.keywords,
			ingested_at = excluded.ingested_at
	`, paper.ID, paper.Title, string(authors), paper.Abstract, paper.PublicationYear,
		paper.Conference, paper.Journal, string(keywords), ingested)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", paper.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE paper_id = ?`, paper.ID); err != nil {
		return fmt.Errorf("clearing paragraphs for %s: %w", paper.ID, err)
	}

	for _, p := range paragraphs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO paragraphs (id, paper_id, section, paragraph_index, text, context)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.PaperID, p.Section, p.ParagraphIndex, p.Text, p.Context)
		if err != nil {
			return fmt.Errorf("inserting paragraph %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetPaper retrieves a paper by id.
func (s *Store) GetPaper(ctx context.Context, id string) (*papers.Paper, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, authors, abstract, publication_year, conference, journal, keywords, ingested_at
		FROM papers WHERE id = ?
	`, id)

	paper, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, papers.NotFoundError{ID: id}
	}
	return paper, err
}

// ListPapers returns all papers ordered by id.
func (s *Store) ListPapers(ctx context.Context) ([]*papers.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, authors, abstract, publication_year, conference, journal, keywords, ingested_at
		FROM papers ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var out []*papers.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, paper)
	}
	return out, rows.Err()
}

// GetParagraph retrieves a paragraph by id.
func (s *Store) GetParagraph(ctx context.Context, id string) (*papers.Paragraph, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, paper_id, section, paragraph_index, text, context
		FROM paragraphs WHERE id = ?
	`, id)

	var p papers.Paragraph
	err := row.Scan(&p.ID, &p.PaperID, &p.Section, &p.ParagraphIndex, &p.Text, &p.Context)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, papers.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("scanning paragraph: %w", err)
	}
	return &p, nil
}

// ListParagraphs returns all paragraphs ordered by id.
func (s *Store) ListParagraphs(ctx context.Context) ([]*papers.Paragraph, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paper_id, section, paragraph_index, text, context
		FROM paragraphs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing paragraphs: %w", err)
	}
	defer rows.Close()

	var out []*papers.Paragraph
	for rows.Next() {
		var p papers.Paragraph
		if err := rows.Scan(&p.ID, &p.PaperID, &p.Section, &p.ParagraphIndex, &p.Text, &p.Context); err != nil {
			return nil, fmt.Errorf("scanning paragraph: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// DeletePaper removes a paper; paragraphs cascade.
func (s *Store) DeletePaper(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting paper %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return papers.NotFoundError{ID: id}
	}
	return nil
}

// CountPapers returns the corpus size.
func (s *Store) CountPapers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// FilterOptions enumerates distinct filterable values. Authors and keywords
// live in JSON columns, so the corpus is scanned and deduplicated in memory.
func (s *Store) FilterOptions(ctx context.Context) (*papers.FilterOptions, error) {
	all, err := s.ListPapers(ctx)
	if err != nil {
		return nil, err
	}

	years := make(map[int]struct{})
	authors := make(map[string]struct{})
	keywords := make(map[string]struct{})
	conferences := make(map[string]struct{})
	journals := make(map[string]struct{})

	for _, p := range all {
		if p.PublicationYear != nil {
			years[*p.PublicationYear] = struct{}{}
		}
		for _, a := range p.Authors {
			authors[a] = struct{}{}
		}
		for _, k := range p.Keywords {
			keywords[k] = struct{}{}
		}
		if p.Conference != "" {
			conferences[p.Conference] = struct{}{}
		}
		if p.Journal != "" {
			journals[p.Journal] = struct{}{}
		}
	}

	opts := &papers.FilterOptions{}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	for a := range authors {
		opts.Authors = append(opts.Authors, a)
	}
	sort.Strings(opts.Authors)
	for k := range keywords {
		opts.Keywords = append(opts.Keywords, k)
	}
	sort.Strings(opts.Keywords)
	for c := range conferences {
		opts.Conferences = append(opts.Conferences, c)
	}
	sort.Strings(opts.Conferences)
	for j := range journals {
		opts.Journals = append(opts.Journals, j)
	}
	sort.Strings(opts.Journals)

	return opts, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*papers.Paper, error) {
	var p papers.Paper
	var authors, keywords string
	var year sql.NullInt64

	err := row.Scan(&p.ID, &p.Title, &authors, &p.Abstract, &year, &p.Conference, &p.Journal, &keywords, &p.IngestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning paper: %w", err)
	}

	if year.Valid {
		y := int(year.Int64)
		p.PublicationYear = &y
	}
	if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
		return nil, fmt.Errorf("unmarshaling authors for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshaling keywords for %s: %w", p.ID, err)
	}

	return &p, nil
}

// Ensure Store implements papers.Store
var _ papers.Store = (*Store)(nil)
