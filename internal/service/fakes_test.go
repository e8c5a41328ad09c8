package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// memStore is an in-memory stand-in for all the pgx repositories. It
// mirrors their conditional-write semantics (partial uniqueness on live
// attempts, single-winner completion, threshold cancel) under a mutex so
// the concurrency tests exercise the same contracts the SQL enforces.
type memStore struct {
	mu sync.Mutex

	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID][]model.Question
	attempts  map[uuid.UUID]*model.ExamAttempt
	answers   map[uuid.UUID]map[uuid.UUID]model.AnswerRecord

	enrolled         map[uuid.UUID]bool
	enrolledClassIDs map[uuid.UUID][]uuid.UUID
	attendance       map[uuid.UUID]model.AttendanceSummary
}

func newMemStore() *memStore {
	return &memStore{
		exams:            make(map[uuid.UUID]*model.Exam),
		questions:        make(map[uuid.UUID][]model.Question),
		attempts:         make(map[uuid.UUID]*model.ExamAttempt),
		answers:          make(map[uuid.UUID]map[uuid.UUID]model.AnswerRecord),
		enrolled:         make(map[uuid.UUID]bool),
		enrolledClassIDs: make(map[uuid.UUID][]uuid.UUID),
		attendance:       make(map[uuid.UUID]model.AttendanceSummary),
	}
}

// ExamStore

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) ListPublished(ctx context.Context) ([]model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Exam
	for _, e := range m.exams {
		if e.Status == model.ExamStatusPublished {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) PublishResults(ctx context.Context, examID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[examID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if e.ResultsPublished {
		return false, nil
	}
	e.ResultsPublished = true
	return true, nil
}

func (m *memStore) ListAutoPublishDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for id, e := range m.exams {
		if e.AutoPublishResults && !e.ResultsPublished &&
			e.ExpirationDate != nil && now.After(*e.ExpirationDate) {
			out = append(out, id)
		}
	}
	return out, nil
}

// QuestionStore

func (m *memStore) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Question(nil), m.questions[examID]...), nil
}

func (m *memStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[uuid.UUID]model.Question)
	for _, qs := range m.questions {
		for _, q := range qs {
			if want[q.ID] {
				out[q.ID] = q
			}
		}
	}
	return out, nil
}

// AttemptStore

func (m *memStore) getAttemptLocked(id uuid.UUID) (*model.ExamAttempt, bool) {
	a, ok := m.attempts[id]
	return a, ok
}

func copyAttempt(a *model.ExamAttempt) *model.ExamAttempt {
	cp := *a
	cp.QuestionIDs = append([]uuid.UUID(nil), a.QuestionIDs...)
	cp.Violations = append([]model.Violation(nil), a.Violations...)
	return &cp
}

func (m *memStore) getAttempt(id uuid.UUID) (*model.ExamAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.getAttemptLocked(id)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return copyAttempt(a), nil
}

func (m *memStore) GetInProgress(ctx context.Context, userID, examID uuid.UUID) (*model.ExamAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.UserID == userID && a.ExamID == examID && a.Status == model.AttemptStatusInProgress {
			return copyAttempt(a), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) CountByStatus(ctx context.Context, userID, examID uuid.UUID, status model.AttemptStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.UserID == userID && a.ExamID == examID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountAll(ctx context.Context, userID, examID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.UserID == userID && a.ExamID == examID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Create(ctx context.Context, a *model.ExamAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.UserID == a.UserID && existing.ExamID == a.ExamID &&
			existing.Status == model.AttemptStatusInProgress {
			return pgx.ErrNoRows
		}
	}
	a.ID = uuid.New()
	if a.StartTime.IsZero() {
		a.StartTime = time.Now()
	}
	m.attempts[a.ID] = copyAttempt(a)
	return nil
}

func (m *memStore) RecordViolation(ctx context.Context, attemptID uuid.UUID, v model.Violation, threshold int) (int, model.AttemptStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.getAttemptLocked(attemptID)
	if !ok || a.Status != model.AttemptStatusInProgress {
		return 0, "", pgx.ErrNoRows
	}
	a.Violations = append(a.Violations, v)
	a.ViolationCount++
	if a.ViolationCount >= threshold {
		a.Status = model.AttemptStatusCancelled
		zero := 0.0
		a.Score = &zero
		a.Percentage = &zero
		now := time.Now()
		a.SubmittedAt = &now
		a.EndTime = &now
	}
	return a.ViolationCount, a.Status, nil
}

func (m *memStore) Complete(ctx context.Context, attemptID uuid.UUID, score, percentage float64, timeSpentMinutes int) (*model.ExamAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.getAttemptLocked(attemptID)
	if !ok || a.Status != model.AttemptStatusInProgress {
		return nil, pgx.ErrNoRows
	}
	a.Status = model.AttemptStatusCompleted
	a.Score = &score
	a.Percentage = &percentage
	a.TimeSpentMinutes = &timeSpentMinutes
	now := time.Now()
	a.SubmittedAt = &now
	a.EndTime = &now
	return copyAttempt(a), nil
}

func (m *memStore) ListExpiredIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for id, a := range m.attempts {
		if a.Status != model.AttemptStatusInProgress {
			continue
		}
		e, ok := m.exams[a.ExamID]
		if !ok {
			continue
		}
		if !a.Deadline(e.DurationMinutes).After(now) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *memStore) listAttemptResults(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.AttemptResult
	for _, a := range m.attempts {
		if a.ExamID == examID {
			out = append(out, repository.AttemptResult{
				UserID:        a.UserID,
				AttemptNumber: a.AttemptNumber,
				Status:        a.Status,
				Score:         a.Score,
				Percentage:    a.Percentage,
				StartTime:     a.StartTime,
				SubmittedAt:   a.SubmittedAt,
			})
		}
	}
	return out, int64(len(out)), nil
}

// AnswerStore

func (m *memStore) Upsert(ctx context.Context, rec *model.AnswerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byQuestion, ok := m.answers[rec.AttemptID]
	if !ok {
		byQuestion = make(map[uuid.UUID]model.AnswerRecord)
		m.answers[rec.AttemptID] = byQuestion
	}
	cp := *rec
	cp.UpdatedAt = time.Now()
	byQuestion[rec.QuestionID] = cp
	return nil
}

func (m *memStore) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AnswerRecord
	for _, rec := range m.answers[attemptID] {
		out = append(out, rec)
	}
	return out, nil
}

// EnrollmentStore

func (m *memStore) HasActiveEnrollment(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID, classIDs []uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrolled[userID], nil
}

func (m *memStore) HasAnyActiveEnrollment(ctx context.Context, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrolled[userID], nil
}

func (m *memStore) ListEnrolledClassIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.enrolledClassIDs[userID]...), nil
}

// AttendanceStore

func (m *memStore) Summarize(ctx context.Context, userID uuid.UUID, classIDs []uuid.UUID) (model.AttendanceSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attendance[userID], nil
}

// attemptStoreAdapter bridges the name clashes between the exam and
// attempt methods on memStore (GetByID, ListByExam).
type attemptStoreAdapter struct{ *memStore }

func (a attemptStoreAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return a.getAttempt(id)
}

func (a attemptStoreAdapter) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	return a.listAttemptResults(ctx, examID, page, perPage)
}

// testRig wires every service against one shared memStore.
type testRig struct {
	store       *memStore
	attempts    AttemptStore
	exam        *ExamService
	session     *SessionService
	answer      *AnswerService
	violation   *ViolationService
	scoring     *ScoringService
	eligibility *EligibilityService
}

func newTestRig() *testRig {
	store := newMemStore()
	attempts := attemptStoreAdapter{store}
	log := zerolog.Nop()

	eligibility := NewEligibilityService(attempts, store, store)
	exam := NewExamService(store, store, attempts, eligibility, nil, log)
	scoring := NewScoringService(attempts, store, store, store, nil, log)
	session := NewSessionService(attempts, store, store, exam, eligibility, scoring, log)
	answer := NewAnswerService(store, attempts, store, store, scoring, log)
	violation := NewViolationService(attempts, store, scoring, nil, log)

	return &testRig{
		store:       store,
		attempts:    attempts,
		exam:        exam,
		session:     session,
		answer:      answer,
		violation:   violation,
		scoring:     scoring,
		eligibility: eligibility,
	}
}

// seedExam installs a published exam with n questions worth the given
// points and returns the exam plus its question list.
func (r *testRig) seedExam(n int, points []float64, mutate func(*model.Exam)) (*model.Exam, []model.Question) {
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Network Fundamentals",
		DurationMinutes: 60,
		TotalQuestions:  n,
		MaxAttempts:     3,
		Status:          model.ExamStatusPublished,
	}
	if mutate != nil {
		mutate(exam)
	}

	questions := make([]model.Question, n)
	for i := 0; i < n; i++ {
		p := 1.0
		if i < len(points) {
			p = points[i]
		}
		questions[i] = model.Question{
			ID:            uuid.New(),
			QuestionText:  "question",
			QuestionType:  model.QuestionTypeMCQ,
			CorrectAnswer: model.NewScalarAnswer("A"),
			Points:        p,
		}
	}

	r.store.mu.Lock()
	r.store.exams[exam.ID] = exam
	r.store.questions[exam.ID] = questions
	r.store.mu.Unlock()

	return exam, questions
}

// enroll marks a candidate as enrolled so eligibility passes.
func (r *testRig) enroll(userID uuid.UUID) {
	r.store.mu.Lock()
	r.store.enrolled[userID] = true
	r.store.mu.Unlock()
}
