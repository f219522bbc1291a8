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

// TrialStore persists trials in SQLite.
type TrialStore struct {
	db *sql.DB
}

var _ dao.Service[string, trial.Trial] = (*TrialStore)(nil)

// NewTrialStore creates a trial store over an opened database.
func NewTrialStore(db *sql.DB) *TrialStore {
	return &TrialStore{db: db}
}

func (s *TrialStore) Save(ctx context.Context, aTrial *trial.Trial) error {
	if aTrial == nil {
		return dao.ErrNilEntity
	}
	if aTrial.ID == "" {
		return dao.ErrInvalidID
	}
	document, err := json.Marshal(aTrial)
	if err != nil {
		return fmt.Errorf("failed to marshal trial: %w", err)
	}
	query := `
	INSERT INTO trials (id, run_id, trial_index, state, document, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		state = excluded.state,
		document = excluded.document,
		updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		aTrial.ID, aTrial.RunID, aTrial.Index, string(aTrial.State), string(document),
		time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *TrialStore) Load(ctx context.Context, id string) (*trial.Trial, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM trials WHERE id = ?`, id).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var aTrial trial.Trial
	if err := json.Unmarshal([]byte(document), &aTrial); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trial %s: %w", id, err)
	}
	return &aTrial, nil
}

func (s *TrialStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM trials WHERE id = ?`, id)
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

// List returns trials; a parameter named RunID narrows the listing to a
// single run ordered by trial index.
func (s *TrialStore) List(ctx context.Context, parameters ...*dao.Parameter) ([]*trial.Trial, error) {
	query := `SELECT document FROM trials`
	var args []interface{}
	if len(parameters) == 1 && parameters[0].Name == "RunID" {
		if runID, ok := parameters[0].Value.(string); ok {
			query += ` WHERE run_id = ? ORDER BY trial_index`
			args = append(args, runID)
		}
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []*trial.Trial
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}
		var aTrial trial.Trial
		if err := json.Unmarshal([]byte(document), &aTrial); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trial: %w", err)
		}
		trials = append(trials, &aTrial)
	}
	return trials, rows.Err()
}
