// Package repository persists users, exam results and login session markers.
// Postgres and Redis back production; the in-memory stores back tests and
// single-process deployments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stemsi/certifypro-backend/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
	ErrMarkerNotFound = errors.New("session marker not found")
)

// CorruptStateError reports a stored record that cannot be decoded or fails
// validation. It is never silently repaired.
type CorruptStateError struct {
	Store string
	Key   string
	Err   error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt %s record %s: %v", e.Store, e.Key, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// UserRepository stores registered users and their completed exams.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// AddCompletedExam is idempotent.
	AddCompletedExam(ctx context.Context, userID uuid.UUID, examID string) error
}

// ResultRepository is the append-only exam attempt log. List methods return
// newest first.
type ResultRepository interface {
	Append(ctx context.Context, r *model.ExamResult) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error)
	ListByUserAndExam(ctx context.Context, userID uuid.UUID, examID string) ([]model.ExamResult, error)
}

// SessionMarkerRepository keeps one current-login marker per user.
type SessionMarkerRepository interface {
	Put(ctx context.Context, userID uuid.UUID, m *model.SessionMarker, ttl time.Duration) error
	Get(ctx context.Context, userID uuid.UUID) (*model.SessionMarker, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

func checkUser(store string, u *model.User) error {
	pub := u.Public()
	if err := validate.Struct(&pub); err != nil {
		return &CorruptStateError{Store: store, Key: u.ID.String(), Err: err}
	}
	if u.PasswordHash == "" {
		return &CorruptStateError{Store: store, Key: u.ID.String(), Err: errors.New("missing password hash")}
	}
	return nil
}

func checkResult(store string, r *model.ExamResult) error {
	if err := validate.Struct(r); err != nil {
		return &CorruptStateError{Store: store, Key: r.ID.String(), Err: err}
	}
	return nil
}
