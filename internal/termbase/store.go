package termbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/legalmt/hct/internal/errs"
)

// schema creates the term table and the four indexes spec.md §4.2
// names: (source_term, source_lang), (target_term, target_lang),
// (source_lang, target_lang), (domain).
const schema = `
CREATE TABLE IF NOT EXISTS terms (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	source_term          TEXT NOT NULL,
	target_term          TEXT NOT NULL,
	source_lang          TEXT NOT NULL,
	target_lang          TEXT NOT NULL,
	domain               TEXT NOT NULL DEFAULT '',
	confidence           REAL NOT NULL DEFAULT 0,
	quality_score        REAL NOT NULL DEFAULT 0,
	combined_score       REAL NOT NULL DEFAULT 0,
	category             TEXT NOT NULL DEFAULT '',
	law                  TEXT NOT NULL DEFAULT '',
	year                 INTEGER NOT NULL DEFAULT 0,
	entry_id             TEXT NOT NULL DEFAULT '',
	source_context       TEXT NOT NULL DEFAULT '',
	target_context       TEXT NOT NULL DEFAULT '',
	occurrence_count     INTEGER NOT NULL DEFAULT 1,
	original_source_term TEXT NOT NULL DEFAULT '',
	original_target_term TEXT NOT NULL DEFAULT '',
	metadata             TEXT NOT NULL DEFAULT '{}',
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_terms_source ON terms(source_term, source_lang);
CREATE INDEX IF NOT EXISTS idx_terms_target ON terms(target_term, target_lang);
CREATE INDEX IF NOT EXISTS idx_terms_langs ON terms(source_lang, target_lang);
CREATE INDEX IF NOT EXISTS idx_terms_domain ON terms(domain);
`

// Store is the single-writer SQLite termbase. Safe for concurrent
// readers; writes should come from one goroutine at a time, matching
// the "single-writer" constraint in spec.md §4.2 — the store does not
// serialize writers itself, BTEP's import tool is the sole writer.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the termbase at path, setting
// journal_mode=WAL, synchronous=NORMAL and a >=5s busy_timeout in the
// DSN so concurrent HTE readers never trip "database is locked" while
// BTEP writes, per spec.md §4.2.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: termbase: open: %v", errs.StorageError, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: termbase: schema: %v", errs.StorageError, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddTerm inserts a single term, stamping CreatedAt/UpdatedAt if unset.
func (s *Store) AddTerm(ctx context.Context, t Term) (int64, error) {
	return s.insert(ctx, s.db, t)
}

// BatchAddTerms inserts many terms inside a single transaction, so a
// mid-batch failure leaves the termbase unchanged rather than partially
// imported.
func (s *Store) BatchAddTerms(ctx context.Context, terms []Term) error {
	if len(terms) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: termbase: begin tx: %v", errs.StorageError, err)
	}
	for _, t := range terms {
		if _, err := s.insert(ctx, tx, t); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: termbase: commit: %v", errs.StorageError, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, ex execer, t Term) (int64, error) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.OccurrenceCount < 1 {
		t.OccurrenceCount = 1
	}
	metaJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return 0, fmt.Errorf("%w: termbase: marshal metadata: %v", errs.StorageError, err)
	}

	res, err := ex.ExecContext(ctx, `
		INSERT INTO terms (
			source_term, target_term, source_lang, target_lang, domain,
			confidence, quality_score, combined_score, category, law, year,
			entry_id, source_context, target_context, occurrence_count,
			original_source_term, original_target_term, metadata,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.SourceTerm, t.TargetTerm, t.SourceLang, t.TargetLang, t.Domain,
		t.Confidence, t.QualityScore, t.CombinedScore, t.Category, t.Law, t.Year,
		t.EntryID, t.SourceContext, t.TargetContext, t.OccurrenceCount,
		t.OriginalSourceTerm, t.OriginalTargetTerm, string(metaJSON),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: termbase: insert: %v", errs.StorageError, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: termbase: last insert id: %v", errs.StorageError, err)
	}
	return id, nil
}

// SearchParams configures SearchTerms.
type SearchParams struct {
	// Term is matched against both source_term and target_term.
	Term       string
	SourceLang string
	TargetLang string
	Domain     string
	// ExactMatch toggles between an exact-equality match and a
	// substring (LIKE) match.
	ExactMatch bool
	Limit      int
}

// SearchTerms finds terms matching params, ordered by confidence desc,
// per spec.md §4.2.
func (s *Store) SearchTerms(ctx context.Context, p SearchParams) ([]Term, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var clauses []string
	var args []any

	if p.Term != "" {
		if p.ExactMatch {
			clauses = append(clauses, "(source_term = ? OR target_term = ?)")
			args = append(args, p.Term, p.Term)
		} else {
			like := "%" + escapeLike(p.Term) + "%"
			clauses = append(clauses, "(source_term LIKE ? ESCAPE '\\' OR target_term LIKE ? ESCAPE '\\')")
			args = append(args, like, like)
		}
	}
	if p.SourceLang != "" {
		clauses = append(clauses, "source_lang = ?")
		args = append(args, p.SourceLang)
	}
	if p.TargetLang != "" {
		clauses = append(clauses, "target_lang = ?")
		args = append(args, p.TargetLang)
	}
	if p.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, p.Domain)
	}

	query := "SELECT id, source_term, target_term, source_lang, target_lang, domain, confidence, quality_score, combined_score, category, law, year, entry_id, source_context, target_context, occurrence_count, original_source_term, original_target_term, metadata, created_at, updated_at FROM terms"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY confidence DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: termbase: search: %v", errs.StorageError, err)
	}
	defer rows.Close()

	var results []Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: termbase: scan: %v", errs.StorageError, err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: termbase: rows: %v", errs.StorageError, err)
	}
	return results, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerm(rows rowScanner) (Term, error) {
	var t Term
	var metaJSON string
	err := rows.Scan(
		&t.ID, &t.SourceTerm, &t.TargetTerm, &t.SourceLang, &t.TargetLang, &t.Domain,
		&t.Confidence, &t.QualityScore, &t.CombinedScore, &t.Category, &t.Law, &t.Year,
		&t.EntryID, &t.SourceContext, &t.TargetContext, &t.OccurrenceCount,
		&t.OriginalSourceTerm, &t.OriginalTargetTerm, &metaJSON,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Term{}, err
	}
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &t.Metadata)
	}
	return t, nil
}

// Stats summarizes the termbase contents for get_term_stats.
type Stats struct {
	TotalTerms     int
	DomainCounts   map[string]int
	LangPairCounts map[string]int
}

// GetTermStats implements spec.md §4.2's get_term_stats.
func (s *Store) GetTermStats(ctx context.Context) (Stats, error) {
	stats := Stats{DomainCounts: map[string]int{}, LangPairCounts: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM terms").Scan(&stats.TotalTerms); err != nil {
		return Stats{}, fmt.Errorf("%w: termbase: count: %v", errs.StorageError, err)
	}

	domainRows, err := s.db.QueryContext(ctx, "SELECT domain, COUNT(*) FROM terms GROUP BY domain")
	if err != nil {
		return Stats{}, fmt.Errorf("%w: termbase: domain stats: %v", errs.StorageError, err)
	}
	defer domainRows.Close()
	for domainRows.Next() {
		var domain string
		var n int
		if err := domainRows.Scan(&domain, &n); err != nil {
			return Stats{}, fmt.Errorf("%w: termbase: scan domain stats: %v", errs.StorageError, err)
		}
		stats.DomainCounts[domain] = n
	}

	langRows, err := s.db.QueryContext(ctx, "SELECT source_lang || '->' || target_lang, COUNT(*) FROM terms GROUP BY source_lang, target_lang")
	if err != nil {
		return Stats{}, fmt.Errorf("%w: termbase: lang stats: %v", errs.StorageError, err)
	}
	defer langRows.Close()
	for langRows.Next() {
		var pair string
		var n int
		if err := langRows.Scan(&pair, &n); err != nil {
			return Stats{}, fmt.Errorf("%w: termbase: scan lang stats: %v", errs.StorageError, err)
		}
		stats.LangPairCounts[pair] = n
	}
	return stats, nil
}

// DeleteTerm removes a term by ID. Supported but unused at runtime
// (spec.md §4.2) — exposed for administrative tooling and tests.
func (s *Store) DeleteTerm(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM terms WHERE id = ?", id); err != nil {
		return fmt.Errorf("%w: termbase: delete: %v", errs.StorageError, err)
	}
	return nil
}
