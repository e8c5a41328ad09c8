package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

func TestStartOrResumeIdempotent(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(5, nil, func(e *model.Exam) { e.ShuffleQuestions = true })
	userID := uuid.New()
	rig.enroll(userID)

	first, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}

	if first.AttemptID != second.AttemptID {
		t.Fatalf("expected the same attempt on resume, got %s and %s", first.AttemptID, second.AttemptID)
	}
	if len(first.Questions) != len(second.Questions) {
		t.Fatalf("question list changed on resume: %d vs %d", len(first.Questions), len(second.Questions))
	}
	for i := range first.Questions {
		if first.Questions[i].ID != second.Questions[i].ID {
			t.Fatalf("question order changed on resume at index %d", i)
		}
	}
}

func TestStartOrResumeConcurrent(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(5, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	const callers = 8
	papers := make([]*model.ExamPaper, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			papers[i], errs[i] = rig.session.StartOrResume(context.Background(), exam.ID, userID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if papers[i].AttemptID != papers[0].AttemptID {
			t.Fatalf("caller %d observed attempt %s, caller 0 observed %s", i, papers[i].AttemptID, papers[0].AttemptID)
		}
	}

	total, _ := rig.store.CountAll(context.Background(), userID, exam.ID)
	if total != 1 {
		t.Fatalf("expected exactly one attempt, got %d", total)
	}
}

func TestStartSamplesSubset(t *testing.T) {
	rig := newTestRig()
	exam, questions := rig.seedExam(5, nil, func(e *model.Exam) {
		e.QuestionsPerStudent = 2
	})
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(paper.Questions) != 2 {
		t.Fatalf("expected 2 assigned questions, got %d", len(paper.Questions))
	}

	pool := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		pool[q.ID] = true
	}
	seen := make(map[uuid.UUID]bool)
	for _, q := range paper.Questions {
		if !pool[q.ID] {
			t.Fatalf("assigned question %s is not in the exam pool", q.ID)
		}
		if seen[q.ID] {
			t.Fatalf("duplicate question %s in assignment", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestAssignQuestionsSeedReproducible(t *testing.T) {
	exam := &model.Exam{ShuffleQuestions: true}
	bank := make([]model.Question, 10)
	for i := range bank {
		bank[i] = model.Question{ID: uuid.New()}
	}

	a := assignQuestions(exam, bank, 42)
	b := assignQuestions(exam, bank, 42)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different orders at index %d", i)
		}
	}
}

func TestAssignQuestionsAuthoringOrder(t *testing.T) {
	exam := &model.Exam{}
	bank := make([]model.Question, 4)
	for i := range bank {
		bank[i] = model.Question{ID: uuid.New()}
	}
	got := assignQuestions(exam, bank, time.Now().UnixNano())
	for i := range bank {
		if got[i] != bank[i].ID {
			t.Fatalf("expected authoring order without shuffle, diverged at %d", i)
		}
	}
}

func TestStartRejectsIneligible(t *testing.T) {
	rig := newTestRig()
	userID := uuid.New()
	rig.enroll(userID)

	tests := []struct {
		name    string
		mutate  func(*model.Exam)
		wantErr error
	}{
		{
			name:    "draft exam",
			mutate:  func(e *model.Exam) { e.Status = model.ExamStatusDraft },
			wantErr: ErrExamNotPublished,
		},
		{
			name: "before window",
			mutate: func(e *model.Exam) {
				start := time.Now().Add(time.Hour)
				e.ScheduledStart = &start
			},
			wantErr: ErrExamNotOpen,
		},
		{
			name: "after window",
			mutate: func(e *model.Exam) {
				end := time.Now().Add(-time.Hour)
				e.ExpirationDate = &end
			},
			wantErr: ErrExamNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam, _ := rig.seedExam(3, nil, tt.mutate)
			_, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestStartEnforcesAttemptQuota(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(3, nil, func(e *model.Exam) { e.MaxAttempts = 2 })
	userID := uuid.New()
	rig.enroll(userID)

	for i := 0; i < 2; i++ {
		paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
		if err != nil {
			t.Fatalf("start %d: %v", i+1, err)
		}
		if _, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
	}

	_, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if !errors.Is(err, ErrMaxAttemptsReached) {
		t.Fatalf("expected ErrMaxAttemptsReached, got %v", err)
	}
}

func TestCancelledAttemptDoesNotConsumeQuota(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(3, nil, func(e *model.Exam) { e.MaxAttempts = 1 })
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < ViolationAutoFailThreshold; i++ {
		if _, err := rig.violation.Record(context.Background(), paper.AttemptID, userID, "tab_switch"); err != nil {
			t.Fatalf("violation %d: %v", i+1, err)
		}
	}

	again, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("restart after cancellation: %v", err)
	}
	if again.AttemptID == paper.AttemptID {
		t.Fatal("expected a fresh attempt after cancellation")
	}
	if again.AttemptNumber != 2 {
		t.Fatalf("expected attempt number 2, got %d", again.AttemptNumber)
	}
}

func TestResumeExpiredFinalizesAndStartsFresh(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(3, nil, func(e *model.Exam) { e.DurationMinutes = 30 })
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	rig.store.mu.Lock()
	rig.store.attempts[paper.AttemptID].StartTime = time.Now().Add(-45 * time.Minute)
	rig.store.mu.Unlock()

	fresh, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start after expiry: %v", err)
	}
	if fresh.AttemptID == paper.AttemptID {
		t.Fatal("expected expired attempt to be replaced")
	}

	old, err := rig.attempts.GetByID(context.Background(), paper.AttemptID)
	if err != nil {
		t.Fatalf("load old attempt: %v", err)
	}
	if old.Status != model.AttemptStatusCompleted {
		t.Fatalf("expected expired attempt finalized as COMPLETED, got %s", old.Status)
	}
}

func TestGetAttemptOwnership(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(3, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := rig.session.GetAttempt(context.Background(), paper.AttemptID, uuid.New()); !errors.Is(err, ErrNotAttemptOwner) {
		t.Fatalf("expected ErrNotAttemptOwner, got %v", err)
	}

	summary, err := rig.session.GetAttempt(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("get own attempt: %v", err)
	}
	if summary.Status != model.AttemptStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", summary.Status)
	}
}

func TestStartNoQuestions(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(0, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	_, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}
