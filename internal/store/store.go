package store

// #region imports
import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davismoran/offline-eval/go-estimator/internal/dm"
)

// #endregion imports

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
	run_id          TEXT PRIMARY KEY,
	created_at      TEXT NOT NULL,
	gamma           REAL NOT NULL,
	episodes        INTEGER NOT NULL,
	v_behavior      REAL NOT NULL,
	v_behavior_std  REAL NOT NULL,
	v_target        REAL NOT NULL,
	v_target_std    REAL NOT NULL,
	v_gain          REAL NOT NULL,
	v_delta         REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS episode_estimates (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	episode_idx  INTEGER NOT NULL,
	v_behavior   REAL NOT NULL,
	v_target     REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES eval_runs(run_id)
);

CREATE TABLE IF NOT EXISTS training_runs (
	train_id    TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	steps       INTEGER NOT NULL,
	mean_loss   REAL NOT NULL,
	losses      BLOB
);

CREATE TABLE IF NOT EXISTS run_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	detail      TEXT,
	reason      TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store persists evaluation and training runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region record-estimate
// RecordEstimate inserts an evaluation run and its per-episode estimates in
// one transaction.
func (s *Store) RecordEstimate(gamma float64, res *dm.Result) (EvalRun, error) {
	run := EvalRun{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Gamma:     gamma,
		Episodes:  len(res.PerEpisode),
		Result:    *res,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return EvalRun{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO eval_runs (run_id, created_at, gamma, episodes, v_behavior, v_behavior_std, v_target, v_target_std, v_gain, v_delta)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.Format(time.RFC3339Nano), run.Gamma, run.Episodes,
		res.VBehavior, res.VBehaviorStd, res.VTarget, res.VTargetStd, res.VGain, res.VDelta,
	)
	if err != nil {
		return EvalRun{}, fmt.Errorf("insert run: %w", err)
	}

	for i, ep := range res.PerEpisode {
		_, err = tx.Exec(
			`INSERT INTO episode_estimates (run_id, episode_idx, v_behavior, v_target)
			 VALUES (?, ?, ?, ?)`,
			run.RunID, i, ep.VBehavior, ep.VTarget,
		)
		if err != nil {
			return EvalRun{}, fmt.Errorf("insert episode %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return EvalRun{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// #endregion record-estimate

// #region record-training
// RecordTraining inserts a training run with its full loss history.
func (s *Store) RecordTraining(tr dm.TrainResult) (TrainingRun, error) {
	run := TrainingRun{
		TrainID:   uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Steps:     len(tr.Losses),
		MeanLoss:  tr.Loss,
		Losses:    tr.Losses,
	}

	_, err := s.db.Exec(
		`INSERT INTO training_runs (train_id, created_at, steps, mean_loss, losses)
		 VALUES (?, ?, ?, ?, ?)`,
		run.TrainID, run.CreatedAt.Format(time.RFC3339Nano), run.Steps, run.MeanLoss,
		encodeLosses(run.Losses),
	)
	if err != nil {
		return TrainingRun{}, fmt.Errorf("insert training run: %w", err)
	}
	return run, nil
}

// #endregion record-training

// #region get-run
// GetRun retrieves an evaluation run with its per-episode detail.
func (s *Store) GetRun(runID string) (EvalRun, error) {
	var run EvalRun
	var createdStr string

	err := s.db.QueryRow(
		`SELECT run_id, created_at, gamma, episodes, v_behavior, v_behavior_std, v_target, v_target_std, v_gain, v_delta
		 FROM eval_runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &createdStr, &run.Gamma, &run.Episodes,
		&run.Result.VBehavior, &run.Result.VBehaviorStd,
		&run.Result.VTarget, &run.Result.VTargetStd,
		&run.Result.VGain, &run.Result.VDelta)
	if err != nil {
		return EvalRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)

	rows, err := s.db.Query(
		`SELECT v_behavior, v_target FROM episode_estimates
		 WHERE run_id = ? ORDER BY episode_idx ASC`, runID,
	)
	if err != nil {
		return EvalRun{}, fmt.Errorf("get episodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ep dm.EpisodeEstimate
		if err := rows.Scan(&ep.VBehavior, &ep.VTarget); err != nil {
			return EvalRun{}, fmt.Errorf("scan episode: %w", err)
		}
		run.Result.PerEpisode = append(run.Result.PerEpisode, ep)
	}
	return run, rows.Err()
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent evaluation runs, without episode detail.
func (s *Store) ListRuns(limit int) ([]EvalRun, error) {
	rows, err := s.db.Query(
		`SELECT run_id, created_at, gamma, episodes, v_behavior, v_behavior_std, v_target, v_target_std, v_gain, v_delta
		 FROM eval_runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []EvalRun
	for rows.Next() {
		var run EvalRun
		var createdStr string
		if err := rows.Scan(&run.RunID, &createdStr, &run.Gamma, &run.Episodes,
			&run.Result.VBehavior, &run.Result.VBehaviorStd,
			&run.Result.VTarget, &run.Result.VTargetStd,
			&run.Result.VGain, &run.Result.VDelta); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// #endregion list-runs

// #region get-training
// GetTraining retrieves a training run by ID.
func (s *Store) GetTraining(trainID string) (TrainingRun, error) {
	var run TrainingRun
	var createdStr string
	var blob []byte

	err := s.db.QueryRow(
		`SELECT train_id, created_at, steps, mean_loss, losses
		 FROM training_runs WHERE train_id = ?`, trainID,
	).Scan(&run.TrainID, &createdStr, &run.Steps, &run.MeanLoss, &blob)
	if err != nil {
		return TrainingRun{}, fmt.Errorf("get training run %s: %w", trainID, err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	run.Losses = decodeLosses(blob)
	return run, nil
}

// #endregion get-training

// #region loss-encoding
func encodeLosses(losses []float64) []byte {
	buf := make([]byte, len(losses)*8)
	for i, l := range losses {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(l))
	}
	return buf
}

func decodeLosses(b []byte) []float64 {
	losses := make([]float64, len(b)/8)
	for i := range losses {
		losses[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return losses
}

// #endregion loss-encoding
