package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/models"

	"github.com/lib/pq"
)

var ErrJobNotFound = errors.New("job not found")

// JobStore persists batch jobs and their per-position reports.
type JobStore interface {
	CreateJob(ctx context.Context, positions int) (string, error)
	SaveReports(ctx context.Context, jobID string, reports []models.PositionReport) error
	FinishJob(ctx context.Context, jobID, status string) error
	FindJobStatus(ctx context.Context, jobID string) (models.JobStatus, error)
}

// Store is the Postgres JobStore. Expected schema:
//
//	analysis_jobs(id uuid default gen_random_uuid(), status text, positions int, created_at, updated_at)
//	position_reports(job_id, idx, ..., primary key (job_id, idx))
type Store struct {
	db *sql.DB
}

func OpenStore(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	d, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return &Store{db: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateJob(ctx context.Context, positions int) (string, error) {
	const q = `
        INSERT INTO analysis_jobs (status, positions)
        VALUES ($1, $2)
        RETURNING id;
    `
	var jobID string
	if err := s.db.QueryRowContext(ctx, q, models.JobQueued, positions).Scan(&jobID); err != nil {
		return "", err
	}
	return jobID, nil
}

// SaveReports bulk-loads reports through a temp table. Rows already stored
// for the same (job, index) are kept, so a redelivered job is harmless.
func (s *Store) SaveReports(ctx context.Context, jobID string, reports []models.PositionReport) error {
	if len(reports) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1) Temp staging table
	_, err = tx.ExecContext(ctx, `
		CREATE TEMP TABLE tmp_reports (
			job_id           UUID,
			idx              INT,
			move_number      INT,
			side_to_move     CHAR(1),
			fen              TEXT,
			normalized_fen   TEXT,
			played_uci       TEXT,
			engine           TEXT,
			eval_type        TEXT,
			eval_value       INT,
			best_move_uci    TEXT,
			cp_loss          INT,
			judgement        TEXT,
			error            TEXT,
			took_ms          BIGINT
		) ON COMMIT DROP;
	`)
	if err != nil {
		return err
	}

	// 2) COPY into tmp_reports
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"tmp_reports",
		"job_id", "idx", "move_number", "side_to_move", "fen", "normalized_fen",
		"played_uci", "engine", "eval_type", "eval_value", "best_move_uci",
		"cp_loss", "judgement", "error", "took_ms",
	))
	if err != nil {
		return err
	}

	for _, r := range reports {
		if _, err := stmt.ExecContext(ctx, reportRow(jobID, r)...); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	// 3) Upsert from tmp_reports into position_reports
	_, err = tx.ExecContext(ctx, `
		INSERT INTO position_reports (
			job_id, idx, move_number, side_to_move, fen, normalized_fen,
			played_uci, engine, eval_type, eval_value, best_move_uci,
			cp_loss, judgement, error, took_ms
		)
		SELECT
			job_id, idx, move_number, side_to_move, fen, normalized_fen,
			played_uci, engine, eval_type, eval_value, best_move_uci,
			cp_loss, judgement, error, took_ms
		FROM tmp_reports
		ON CONFLICT (job_id, idx) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// reportRow flattens a report into tmp_reports column order. Optional
// values become NULL.
func reportRow(jobID string, r models.PositionReport) []any {
	var evalType, bestMove sql.NullString
	var evalValue sql.NullInt64
	if r.Analysis != nil {
		evalType = sql.NullString{String: r.Analysis.Evaluation.Type, Valid: true}
		evalValue = sql.NullInt64{Int64: int64(r.Analysis.Evaluation.Value), Valid: true}
		if r.Analysis.BestMove != nil {
			bestMove = sql.NullString{String: *r.Analysis.BestMove, Valid: true}
		}
	}
	return []any{
		jobID,
		r.Index,
		r.MoveNumber,
		r.SideToMove,
		r.FEN,
		NormalizeFEN(r.FEN),
		nullString(r.Played),
		r.Engine,
		evalType,
		evalValue,
		bestMove,
		r.CPLoss,
		nullString(r.Judgement),
		nullString(r.Error),
		r.TookMS,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *Store) FinishJob(ctx context.Context, jobID, status string) error {
	const q = `
        UPDATE analysis_jobs
        SET status = $2, updated_at = now()
        WHERE id = $1;
    `
	res, err := s.db.ExecContext(ctx, q, jobID, status)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return nil
}

// FindJobStatus fetches a job and how many of its positions have reports.
func (s *Store) FindJobStatus(ctx context.Context, jobID string) (models.JobStatus, error) {
	const q = `
        SELECT j.id, j.status, j.positions, COUNT(r.idx)
        FROM analysis_jobs j
        LEFT JOIN position_reports r ON r.job_id = j.id
        WHERE j.id = $1
        GROUP BY j.id, j.status, j.positions;
    `
	var js models.JobStatus
	row := s.db.QueryRowContext(ctx, q, jobID)
	if err := row.Scan(&js.ID, &js.Status, &js.Positions, &js.Analyzed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return models.JobStatus{}, err
	}
	return js, nil
}
