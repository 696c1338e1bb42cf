package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/certifypro-backend/internal/model"
)

// MemoryUserRepository keeps users in process memory.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	order   []uuid.UUID
	byID    map[uuid.UUID]*model.User
	byEmail map[string]uuid.UUID
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return ErrDuplicateEmail
	}
	cp := copyUser(u)
	r.byID[u.ID] = cp
	r.byEmail[u.Email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, *copyUser(r.byID[id]))
	}
	return users, nil
}

func (r *MemoryUserRepository) AddCompletedExam(_ context.Context, userID uuid.UUID, examID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	if !u.HasCompleted(examID) {
		u.CompletedExams = append(u.CompletedExams, examID)
	}
	return nil
}

func copyUser(u *model.User) *model.User {
	cp := *u
	cp.CompletedExams = append([]string{}, u.CompletedExams...)
	return &cp
}

// MemoryResultRepository keeps the attempt log in process memory.
type MemoryResultRepository struct {
	mu      sync.RWMutex
	results []model.ExamResult
}

// NewMemoryResultRepository creates an empty MemoryResultRepository.
func NewMemoryResultRepository() *MemoryResultRepository {
	return &MemoryResultRepository{}
}

func (r *MemoryResultRepository) Append(_ context.Context, res *model.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *res
	cp.Answers = res.Answers.Clone()
	r.results = append(r.results, cp)
	return nil
}

func (r *MemoryResultRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	return r.newestFirst(func(res *model.ExamResult) bool { return res.UserID == userID }), nil
}

func (r *MemoryResultRepository) ListByUserAndExam(_ context.Context, userID uuid.UUID, examID string) ([]model.ExamResult, error) {
	return r.newestFirst(func(res *model.ExamResult) bool {
		return res.UserID == userID && res.ExamID == examID
	}), nil
}

func (r *MemoryResultRepository) newestFirst(match func(*model.ExamResult) bool) []model.ExamResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ExamResult
	for i := len(r.results) - 1; i >= 0; i-- {
		if match(&r.results[i]) {
			res := r.results[i]
			res.Answers = res.Answers.Clone()
			out = append(out, res)
		}
	}
	// Appends normally arrive in time order; equal timestamps keep the newest append first.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// MemorySessionMarkerRepository keeps login markers in process memory.
type MemorySessionMarkerRepository struct {
	mu      sync.Mutex
	markers map[uuid.UUID]memoryMarker
	now     func() time.Time
}

type memoryMarker struct {
	marker    model.SessionMarker
	expiresAt time.Time
}

// NewMemorySessionMarkerRepository creates an empty marker store.
func NewMemorySessionMarkerRepository() *MemorySessionMarkerRepository {
	return &MemorySessionMarkerRepository{
		markers: make(map[uuid.UUID]memoryMarker),
		now:     time.Now,
	}
}

func (r *MemorySessionMarkerRepository) Put(_ context.Context, userID uuid.UUID, m *model.SessionMarker, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryMarker{marker: *m}
	entry.marker.User.CompletedExams = append([]string{}, m.User.CompletedExams...)
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.markers[userID] = entry
	return nil
}

func (r *MemorySessionMarkerRepository) Get(_ context.Context, userID uuid.UUID) (*model.SessionMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.markers[userID]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.markers, userID)
		return nil, ErrMarkerNotFound
	}
	m := entry.marker
	m.User.CompletedExams = append([]string{}, entry.marker.User.CompletedExams...)
	return &m, nil
}

func (r *MemorySessionMarkerRepository) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, userID)
	return nil
}
