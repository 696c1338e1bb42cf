package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is the credential issued for a passed exam.
type Certificate struct {
	Number     string    `json:"number"`
	Issuer     string    `json:"issuer"`
	UserID     uuid.UUID `json:"user_id"`
	HolderName string    `json:"holder_name"`
	ExamID     string    `json:"exam_id"`
	ExamTitle  string    `json:"exam_title"`
	BestScore  float64   `json:"best_score"`
	PassedAt   time.Time `json:"passed_at"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Dashboard summarizes a user's progress across the catalog.
type Dashboard struct {
	User         PublicUser    `json:"user"`
	Available    []ExamSummary `json:"available"`
	Completed    []ExamSummary `json:"completed"`
	Certificates []ExamSummary `json:"certificates"`
	Attempts     []ExamResult  `json:"attempts"`
}
