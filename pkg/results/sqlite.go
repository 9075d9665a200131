package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/experiment"
)

// SQLiteStore keeps suite results in a SQLite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Summary describes a stored suite without its trajectories.
type Summary struct {
	ID        uuid.UUID
	Name      string
	Steps     int
	Tests     int
	StartTime time.Time
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveResult writes res and all of its steps in one transaction. Saving the
// same ID twice replaces the earlier copy.
func (s *SQLiteStore) SaveResult(ctx context.Context, res *experiment.Result) (err error) {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	arms, err := json.Marshal(res.Arms)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := res.ID.String()
	for _, table := range []string{"steps", "tests", "suites"} {
		col := "suite_id"
		if table == "suites" {
			col = "id"
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+col+` = ?`, id); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO suites (id, name, arms, optimal_arm, steps, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, res.Name, string(arms), res.OptimalArm, res.Steps,
		res.StartTime.UTC().Format(time.RFC3339Nano), res.EndTime.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	stepStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps (suite_id, test_pos, run_num, step, action, reward)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stepStmt.Close()

	for pos, tr := range res.Tests {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tests (suite_id, pos, name, epsilon, runs)
			VALUES (?, ?, ?, ?, ?)
		`, id, pos, tr.Name, tr.Epsilon, len(tr.Runs))
		if err != nil {
			return err
		}
		for run, traj := range tr.Runs {
			for step, st := range traj {
				if _, err = stepStmt.ExecContext(ctx, id, pos, run+1, step+1, st.Action, st.Reward); err != nil {
					return fmt.Errorf("test %s run %d step %d: %w", tr.Name, run+1, step+1, err)
				}
			}
		}
	}

	return tx.Commit()
}

// GetResult loads a stored suite. The bool is false when id is unknown.
func (s *SQLiteStore) GetResult(ctx context.Context, id uuid.UUID) (*experiment.Result, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	res := &experiment.Result{ID: id}
	var arms, started, ended string
	err = db.QueryRowContext(ctx, `
		SELECT name, arms, optimal_arm, steps, started_at, ended_at FROM suites WHERE id = ?
	`, id.String()).Scan(&res.Name, &arms, &res.OptimalArm, &res.Steps, &started, &ended)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(arms), &res.Arms); err != nil {
		return nil, false, fmt.Errorf("decode arms of %s: %w", id, err)
	}
	if res.StartTime, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, false, err
	}
	if res.EndTime, err = time.Parse(time.RFC3339Nano, ended); err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name, epsilon, runs FROM tests WHERE suite_id = ? ORDER BY pos`, id.String())
	if err != nil {
		return nil, false, err
	}
	for rows.Next() {
		var tr experiment.TestResult
		var runs int
		if err := rows.Scan(&tr.Name, &tr.Epsilon, &runs); err != nil {
			rows.Close()
			return nil, false, err
		}
		tr.Runs = make([]core.Trajectory, runs)
		for i := range tr.Runs {
			tr.Runs[i] = make(core.Trajectory, 0, res.Steps)
		}
		res.Tests = append(res.Tests, tr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	rows, err = db.QueryContext(ctx, `
		SELECT test_pos, run_num, action, reward FROM steps
		WHERE suite_id = ? ORDER BY test_pos, run_num, step
	`, id.String())
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var pos, run int
		var st core.Step
		if err := rows.Scan(&pos, &run, &st.Action, &st.Reward); err != nil {
			return nil, false, err
		}
		if pos >= len(res.Tests) || run < 1 || run > len(res.Tests[pos].Runs) {
			return nil, false, fmt.Errorf("step row out of range: test %d run %d", pos, run)
		}
		res.Tests[pos].Runs[run-1] = append(res.Tests[pos].Runs[run-1], st)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// ListResults returns every stored suite, newest first.
func (s *SQLiteStore) ListResults(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT s.id, s.name, s.steps, s.started_at, (SELECT COUNT(*) FROM tests t WHERE t.suite_id = s.id)
		FROM suites s ORDER BY s.started_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var id, started string
		if err := rows.Scan(&id, &sum.Name, &sum.Steps, &started, &sum.Tests); err != nil {
			return nil, err
		}
		if sum.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("stored id %q: %w", id, err)
		}
		if sum.StartTime, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS suites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			arms TEXT NOT NULL,
			optimal_arm TEXT NOT NULL,
			steps INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tests (
			suite_id TEXT NOT NULL,
			pos INTEGER NOT NULL,
			name TEXT NOT NULL,
			epsilon REAL NOT NULL,
			runs INTEGER NOT NULL,
			PRIMARY KEY (suite_id, pos)
		);
		CREATE TABLE IF NOT EXISTS steps (
			suite_id TEXT NOT NULL,
			test_pos INTEGER NOT NULL,
			run_num INTEGER NOT NULL,
			step INTEGER NOT NULL,
			action TEXT NOT NULL,
			reward REAL NOT NULL,
			PRIMARY KEY (suite_id, test_pos, run_num, step)
		);
	`)
	return err
}
