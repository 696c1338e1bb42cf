package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/certifypro-backend/internal/model"
)

const userColumns = `u.id, u.email, u.first_name, u.last_name, u.password_hash, u.created_at,
	COALESCE(array_agg(c.exam_id ORDER BY c.completed_at, c.exam_id) FILTER (WHERE c.exam_id IS NOT NULL), '{}')`

const userFrom = ` FROM users u LEFT JOIN user_completed_exams c ON c.user_id = u.id`

// PostgresUserRepository handles user data access.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create inserts a new user. The id and created_at are assigned by the caller.
func (r *PostgresUserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, first_name, last_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID retrieves a user with their completed exams.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+userFrom+` WHERE u.id = $1 GROUP BY u.id`, id)
}

// GetByEmail retrieves a user by their normalized email.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+userFrom+` WHERE u.email = $1 GROUP BY u.id`, email)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	u := &model.User{}
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.CompletedExams)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := checkUser("users", u); err != nil {
		return nil, err
	}
	return u, nil
}

// List retrieves all users in registration order.
func (r *PostgresUserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+userFrom+` GROUP BY u.id ORDER BY u.created_at, u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.CompletedExams); err != nil {
			return nil, err
		}
		if err := checkUser("users", &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AddCompletedExam records a passed exam. Repeated calls are no-ops.
func (r *PostgresUserRepository) AddCompletedExam(ctx context.Context, userID uuid.UUID, examID string) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO user_completed_exams (user_id, exam_id)
		 SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)
		 ON CONFLICT (user_id, exam_id) DO NOTHING`,
		userID, examID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
	}
	return nil
}
