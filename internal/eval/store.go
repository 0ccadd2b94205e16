package eval

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Result is the persisted outcome of one evaluated dataset row.
// Success false means the pipeline failed for this row; Error carries the
// message and all score fields are null.
type Result struct {
	RowID    int
	Question string
	Answer   string
	Success  bool
	Error    string

	RelevancyScore        *float64
	RelevancyReasoning    string
	FaithfulnessVerdict   string
	FaithfulnessReasoning string

	Retrieval *Metrics

	QueryExtraction string
	RecipeContext   string
}

// Store persists evaluation experiments and their per-row results in a
// local SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default experiment database path. LADLE_EVAL_DB
// overrides; otherwise it resolves to ~/.ladle/eval.db, creating the
// directory if needed.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("LADLE_EVAL_DB"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("eval: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ladle")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("eval: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "eval.db"), nil
}

// OpenStore opens (or creates) a Store at the given path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func OpenStore(path string) (*Store, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("eval: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS experiments (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT    NOT NULL UNIQUE,
    settings   TEXT    NOT NULL,
    created_at INTEGER NOT NULL  -- Unix timestamp (seconds)
);
CREATE TABLE IF NOT EXISTS results (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    experiment_id          INTEGER NOT NULL REFERENCES experiments(id),
    row_id                 INTEGER NOT NULL,
    question               TEXT    NOT NULL,
    answer                 TEXT    NOT NULL,
    success                INTEGER NOT NULL,
    error                  TEXT,
    relevancy_score        REAL,
    relevancy_reasoning    TEXT,
    faithfulness_verdict   TEXT,
    faithfulness_reasoning TEXT,
    precision              REAL,
    recall                 REAL,
    recall_capped          REAL,
    mrr                    REAL,
    ndcg                   REAL,
    hit                    INTEGER,
    relevant_count         INTEGER,
    query_extraction       TEXT,
    recipe_context         TEXT,
    created_at             INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_experiment
    ON results (experiment_id, row_id);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("eval: migrate: %w", err)
	}
	return nil
}

// CreateExperiment registers a new experiment and returns its ID.
// settings is an opaque JSON snapshot of the run configuration.
func (s *Store) CreateExperiment(ctx context.Context, name, settings string) (int64, error) {
	const q = `INSERT INTO experiments (name, settings, created_at) VALUES (?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q, name, settings, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("eval: create experiment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("eval: create experiment: %w", err)
	}
	return id, nil
}

// AppendResult persists one row result for an experiment.
func (s *Store) AppendResult(ctx context.Context, experimentID int64, r *Result) error {
	const q = `
INSERT INTO results (
    experiment_id, row_id, question, answer, success, error,
    relevancy_score, relevancy_reasoning, faithfulness_verdict, faithfulness_reasoning,
    precision, recall, recall_capped, mrr, ndcg, hit, relevant_count,
    query_extraction, recipe_context, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var precision, recall, recallCapped, mrr, ndcgScore *float64
	var hit *bool
	var relevantCount *int
	if r.Retrieval != nil {
		precision = &r.Retrieval.Precision
		recall = &r.Retrieval.Recall
		recallCapped = &r.Retrieval.RecallCapped
		mrr = &r.Retrieval.MRR
		ndcgScore = &r.Retrieval.NDCG
		hit = &r.Retrieval.Hit
		relevantCount = &r.Retrieval.RelevantCount
	}

	_, err := s.db.ExecContext(ctx, q,
		experimentID, r.RowID, r.Question, r.Answer, r.Success, nullStr(r.Error),
		nullFloat(r.RelevancyScore), nullStr(r.RelevancyReasoning),
		nullStr(r.FaithfulnessVerdict), nullStr(r.FaithfulnessReasoning),
		nullFloat(precision), nullFloat(recall), nullFloat(recallCapped),
		nullFloat(mrr), nullFloat(ndcgScore), hit, relevantCount,
		nullStr(r.QueryExtraction), nullStr(r.RecipeContext), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("eval: append result: %w", err)
	}
	return nil
}

// Results returns every persisted result for an experiment, ordered by row.
func (s *Store) Results(ctx context.Context, experimentID int64) ([]Result, error) {
	const q = `
SELECT row_id, question, answer, success, COALESCE(error, ''),
       relevancy_score, COALESCE(relevancy_reasoning, ''),
       COALESCE(faithfulness_verdict, ''), COALESCE(faithfulness_reasoning, ''),
       precision, recall, recall_capped, mrr, ndcg, hit, relevant_count,
       COALESCE(query_extraction, ''), COALESCE(recipe_context, '')
FROM   results
WHERE  experiment_id = ?
ORDER  BY row_id ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, experimentID)
	if err != nil {
		return nil, fmt.Errorf("eval: results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var precision, recall, recallCapped, mrr, ndcgScore sql.NullFloat64
		var hit sql.NullBool
		var relevantCount sql.NullInt64
		if err := rows.Scan(
			&r.RowID, &r.Question, &r.Answer, &r.Success, &r.Error,
			&r.RelevancyScore, &r.RelevancyReasoning,
			&r.FaithfulnessVerdict, &r.FaithfulnessReasoning,
			&precision, &recall, &recallCapped, &mrr, &ndcgScore, &hit, &relevantCount,
			&r.QueryExtraction, &r.RecipeContext,
		); err != nil {
			return nil, fmt.Errorf("eval: results scan: %w", err)
		}
		if precision.Valid {
			r.Retrieval = &Metrics{
				Precision:     precision.Float64,
				Recall:        recall.Float64,
				RecallCapped:  recallCapped.Float64,
				MRR:           mrr.Float64,
				NDCG:          ndcgScore.Float64,
				Hit:           hit.Bool,
				RelevantCount: int(relevantCount.Int64),
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eval: results rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("eval: close: %w", err)
	}
	return nil
}

// nullStr maps an empty string to SQL NULL.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullFloat passes a nullable float through to the driver.
func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
