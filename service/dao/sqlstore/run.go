package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweepline/sweep/runtime/trial"
	"github.com/sweepline/sweep/service/dao"
)

// RunStore persists runs in SQLite.
type RunStore struct {
	db *sql.DB
}

var _ dao.Service[string, trial.Run] = (*RunStore)(nil)

// NewRunStore creates a run store over an opened database.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Save(ctx context.Context, run *trial.Run) error {
	if run == nil {
		return dao.ErrNilEntity
	}
	if run.ID == "" {
		return dao.ErrInvalidID
	}
	document, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	query := `
	INSERT INTO runs (id, name, state, document, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		state = excluded.state,
		document = excluded.document,
		updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID, run.Name, run.State, string(document), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *RunStore) Load(ctx context.Context, id string) (*trial.Run, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM runs WHERE id = ?`, id).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var run trial.Run
	if err := json.Unmarshal([]byte(document), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}
	return &run, nil
}

func (s *RunStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return dao.ErrNotFound
	}
	return nil
}

func (s *RunStore) List(ctx context.Context, parameters ...*dao.Parameter) ([]*trial.Run, error) {
	query := `SELECT document FROM runs`
	var args []interface{}
	if state, states, ok := stateFilter(parameters); ok {
		if len(states) > 0 {
			query += ` WHERE state IN (` + placeholders(len(states)) + `)`
			for _, s := range states {
				args = append(args, s)
			}
		} else {
			query += ` WHERE state = ?`
			args = append(args, state)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*trial.Run
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		var run trial.Run
		if err := json.Unmarshal([]byte(document), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func stateFilter(parameters []*dao.Parameter) (string, []string, bool) {
	if len(parameters) != 1 || parameters[0].Name != "State" {
		return "", nil, false
	}
	switch actual := parameters[0].Value.(type) {
	case string:
		return actual, nil, true
	case []string:
		return "", actual, true
	}
	return "", nil, false
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ", "
		}
		out += "?"
	}
	return out
}
