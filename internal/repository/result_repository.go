package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// PostgresResultRepository is the exam_results attempt log.
type PostgresResultRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresResultRepository creates a new PostgresResultRepository.
func NewPostgresResultRepository(pool *pgxpool.Pool) *PostgresResultRepository {
	return &PostgresResultRepository{pool: pool}
}

// Append inserts one attempt. Rows are never updated.
func (r *PostgresResultRepository) Append(ctx context.Context, res *model.ExamResult) error {
	answers, err := json.Marshal(res.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_results (id, user_id, exam_id, score, passed, taken_at, answers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.UserID, res.ExamID, res.Score, res.Passed, res.Date, answers,
	)
	return err
}

// ListByUser returns every attempt of a user, newest first.
func (r *PostgresResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, score, passed, taken_at, answers
		 FROM exam_results
		 WHERE user_id = $1
		 ORDER BY taken_at DESC, seq DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

// ListByUserAndExam returns a user's attempts at one exam, newest first.
func (r *PostgresResultRepository) ListByUserAndExam(ctx context.Context, userID uuid.UUID, examID string) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, score, passed, taken_at, answers
		 FROM exam_results
		 WHERE user_id = $1 AND exam_id = $2
		 ORDER BY taken_at DESC, seq DESC`, userID, examID,
	)
	if err != nil {
		return nil, err
	}
	return scanResults(rows)
}

func scanResults(rows pgx.Rows) ([]model.ExamResult, error) {
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		var raw []byte
		if err := rows.Scan(&res.ID, &res.UserID, &res.ExamID, &res.Score, &res.Passed, &res.Date, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &res.Answers); err != nil {
			return nil, &CorruptStateError{Store: "exam_results", Key: res.ID.String(), Err: err}
		}
		if res.Answers == nil {
			res.Answers = model.Answers{}
		}
		if err := checkResult("exam_results", &res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
