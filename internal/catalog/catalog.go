// Package catalog holds the read-only registry of exam definitions.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/certifypro-backend/internal/model"
)

//go:embed exams.json
var defaultCatalog []byte

// ErrExamNotFound is returned when an exam id is not in the catalog.
var ErrExamNotFound = errors.New("exam not found")

// ConfigurationError reports a catalog that cannot be served. Exams are
// validated at load time so that no session is ever built from a bad exam.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid exam catalog: " + strings.Join(e.Problems, "; ")
}

type document struct {
	Exams []model.Exam `json:"exams"`
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	exams []model.Exam
	index map[string]int
}

var validate = govalidator.New(govalidator.WithRequiredStructEnabled())

// New validates the exams and builds a catalog.
func New(exams []model.Exam) (*Catalog, error) {
	if err := Validate(exams); err != nil {
		return nil, err
	}

	c := &Catalog{
		exams: make([]model.Exam, len(exams)),
		index: make(map[string]int, len(exams)),
	}
	for i := range exams {
		c.exams[i] = cloneExam(&exams[i])
		c.index[exams[i].ID] = i
	}
	return c, nil
}

// Load decodes a catalog document ({"exams": [...]}) and validates it.
func Load(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, &ConfigurationError{Problems: []string{"decode catalog: " + err.Error()}}
	}
	return New(doc.Exams)
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Validate checks every exam and returns a *ConfigurationError listing all problems.
func Validate(exams []model.Exam) error {
	var problems []string
	if len(exams) == 0 {
		problems = append(problems, "catalog has no exams")
	}

	seen := make(map[string]bool, len(exams))
	for i := range exams {
		e := &exams[i]
		label := e.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		if seen[e.ID] {
			problems = append(problems, fmt.Sprintf("exam %s: duplicate id", label))
		}
		seen[e.ID] = true

		// Grading divides by the question count.
		if len(e.Questions) == 0 {
			problems = append(problems, fmt.Sprintf("exam %s: has no questions", label))
		}

		qSeen := make(map[string]bool, len(e.Questions))
		for _, q := range e.Questions {
			if qSeen[q.ID] {
				problems = append(problems, fmt.Sprintf("exam %s: duplicate question id %q", label, q.ID))
			}
			qSeen[q.ID] = true

			if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
				problems = append(problems, fmt.Sprintf("exam %s: question %s: correct answer %d outside %d options",
					label, q.ID, q.CorrectAnswer, len(q.Options)))
			}
		}

		if err := validate.Struct(e); err != nil {
			var ve govalidator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					problems = append(problems, fmt.Sprintf("exam %s: %s failed %q", label, fe.Namespace(), fe.Tag()))
				}
			} else {
				problems = append(problems, fmt.Sprintf("exam %s: %v", label, err))
			}
		}
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// Get returns a copy of the exam with the given id.
func (c *Catalog) Get(id string) (*model.Exam, error) {
	i, ok := c.index[id]
	if !ok {
		return nil, ErrExamNotFound
	}
	e := cloneExam(&c.exams[i])
	return &e, nil
}

// Has reports whether id names a catalog exam.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// List returns the exam summaries in catalog order.
func (c *Catalog) List() []model.ExamSummary {
	out := make([]model.ExamSummary, len(c.exams))
	for i := range c.exams {
		out[i] = c.exams[i].Summary()
	}
	return out
}

// Len is the number of exams.
func (c *Catalog) Len() int {
	return len(c.exams)
}

func cloneExam(e *model.Exam) model.Exam {
	out := *e
	out.Questions = make([]model.Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}
