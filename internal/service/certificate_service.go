package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/grading"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// ErrAccessDenied is returned when the user has not passed the exam.
var ErrAccessDenied = errors.New("exam not passed")

// certificateNamespace seeds deterministic certificate numbers.
var certificateNamespace = uuid.MustParse("6f1c9a52-3b0e-4d7c-9a51-0c2f8e4b7d13")

// CertificateService issues certificates for passed exams.
type CertificateService struct {
	exams   *ExamService
	auth    *AuthService
	results *ResultService
	issuer  string
	log     zerolog.Logger
}

// NewCertificateService creates a new CertificateService.
func NewCertificateService(exams *ExamService, auth *AuthService, results *ResultService, issuer string, log zerolog.Logger) *CertificateService {
	return &CertificateService{
		exams:   exams,
		auth:    auth,
		results: results,
		issuer:  issuer,
		log:     log.With().Str("component", "certificate_service").Logger(),
	}
}

// CertificateNumber derives a stable number from the user and exam ids.
func CertificateNumber(userID uuid.UUID, examID string) string {
	id := uuid.NewSHA1(certificateNamespace, []byte(userID.String()+"|"+examID))
	return "CP-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}

// Issue checks the access gate against the result log and builds the
// certificate. Nothing is cached between requests.
func (s *CertificateService) Issue(ctx context.Context, userID uuid.UUID, examID string) (*model.Certificate, error) {
	exam, err := s.exams.Exam(examID)
	if err != nil {
		return nil, err
	}

	// One read of the log serves the gate and both dates.
	attempts, err := s.results.ListExamAttempts(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	best := bestPassing(attempts)
	if best == nil {
		s.log.Debug().Str("user_id", userID.String()).Str("exam_id", examID).Msg("Certificate denied")
		return nil, ErrAccessDenied
	}
	first := firstPassing(attempts)

	user, err := s.auth.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.Certificate{
		Number:     CertificateNumber(userID, examID),
		Issuer:     s.issuer,
		UserID:     userID,
		HolderName: user.FullName(),
		ExamID:     exam.ID,
		ExamTitle:  exam.Title,
		BestScore:  best.Score,
		PassedAt:   best.Date,
		IssuedAt:   first.Date,
	}, nil
}

// RenderPDF writes the certificate as an A4 landscape PDF.
func (s *CertificateService) RenderPDF(cert *model.Certificate, w io.Writer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(cert.ExamTitle+" Certificate", true)
	pdf.SetAuthor(cert.Issuer, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width, height := pdf.GetPageSize()

	pdf.SetDrawColor(37, 99, 235)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, width-20, height-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, width-28, height-28, "D")

	pdf.SetTextColor(37, 99, 235)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetY(35)
	pdf.CellFormat(0, 14, tr("Certificate of Completion"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(8)
	pdf.CellFormat(0, 8, tr("This certifies that"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont("Helvetica", "B", 26)
	pdf.Ln(4)
	pdf.CellFormat(0, 14, tr(cert.HolderName), "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, tr("has successfully passed the exam"), "", 1, "C", false, 0, "")

	pdf.SetTextColor(17, 24, 39)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Ln(2)
	pdf.CellFormat(0, 12, tr(cert.ExamTitle), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.Ln(4)
	pdf.CellFormat(0, 8, "Score: "+grading.FormatScore(cert.BestScore)+"%", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(30, height-45)
	pdf.CellFormat(80, 6, "Passed on "+cert.PassedAt.Format("January 2, 2006"), "", 0, "L", false, 0, "")
	pdf.SetXY(width-110, height-45)
	pdf.CellFormat(80, 6, "Certificate No. "+cert.Number, "", 0, "R", false, 0, "")
	pdf.SetXY(30, height-38)
	pdf.CellFormat(80, 6, "First issued "+cert.IssuedAt.Format("January 2, 2006"), "", 0, "L", false, 0, "")
	pdf.SetXY(width-110, height-38)
	pdf.CellFormat(80, 6, tr(cert.Issuer), "", 0, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return nil
}
