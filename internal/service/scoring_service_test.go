package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
)

func TestSubmitScoresAttempt(t *testing.T) {
	rig := newTestRig()
	exam, questions := rig.seedExam(3, []float64{2, 3, 5}, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Correct on the 2- and 3-point questions, wrong on the 5-point one.
	answers := []struct {
		q     model.Question
		value string
	}{
		{questions[0], "A"},
		{questions[1], "A"},
		{questions[2], "C"},
	}
	for _, a := range answers {
		if _, err := rig.answer.Save(context.Background(), paper.AttemptID, userID, &model.SaveAnswerRequest{
			QuestionID: a.q.ID,
			Answer:     model.NewScalarAnswer(a.value),
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	summary, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if summary.Status != model.AttemptStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", summary.Status)
	}
	if summary.Score == nil || *summary.Score != 5 {
		t.Fatalf("expected score 5, got %v", summary.Score)
	}
	if summary.Percentage == nil || *summary.Percentage != 50 {
		t.Fatalf("expected percentage 50, got %v", summary.Percentage)
	}
	if summary.SubmittedAt == nil {
		t.Fatal("expected submission timestamp")
	}
}

func TestSubmitUnansweredQuestionsScoreZero(t *testing.T) {
	rig := newTestRig()
	exam, questions := rig.seedExam(2, []float64{5, 5}, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rig.answer.Save(context.Background(), paper.AttemptID, userID, &model.SaveAnswerRequest{
		QuestionID: questions[0].ID,
		Answer:     model.NewScalarAnswer("A"),
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	summary, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if *summary.Score != 5 || *summary.Percentage != 50 {
		t.Fatalf("unanswered question should count as zero: score=%v pct=%v", *summary.Score, *summary.Percentage)
	}
}

func TestSubmitTerminalAttemptRejected(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(2, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}

	if _, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID); !errors.Is(err, ErrAttemptNotInProgress) {
		t.Fatalf("expected ErrAttemptNotInProgress on resubmit, got %v", err)
	}

	attempt, _ := rig.attempts.GetByID(context.Background(), paper.AttemptID)
	if *attempt.Score != *first.Score {
		t.Fatal("recorded outcome changed after rejected resubmit")
	}
}

func TestSubmitOwnership(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(2, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rig.scoring.Submit(context.Background(), paper.AttemptID, uuid.New()); !errors.Is(err, ErrNotAttemptOwner) {
		t.Fatalf("expected ErrNotAttemptOwner, got %v", err)
	}
}

func TestSubmitEmptyPaperPercentageZero(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(1, []float64{0}, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	summary, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if *summary.Percentage != 0 {
		t.Fatalf("expected percentage 0 with zero max points, got %v", *summary.Percentage)
	}
}

func TestSubmitAutoPublishesResults(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(1, nil, func(e *model.Exam) { e.AutoPublishResults = true })
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := rig.store.GetByID(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("load exam: %v", err)
	}
	if !updated.ResultsPublished {
		t.Fatal("expected results published after first submission")
	}
}

func TestFinalizeExpiredIsIdempotent(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(1, nil, nil)
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := rig.scoring.FinalizeExpired(context.Background(), paper.AttemptID); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if err := rig.scoring.FinalizeExpired(context.Background(), paper.AttemptID); err != nil {
		t.Fatalf("second finalize should be a no-op: %v", err)
	}

	attempt, _ := rig.attempts.GetByID(context.Background(), paper.AttemptID)
	if attempt.Status != model.AttemptStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", attempt.Status)
	}
}

func TestFullSessionFlow(t *testing.T) {
	rig := newTestRig()
	exam, _ := rig.seedExam(3, []float64{2, 3, 5}, func(e *model.Exam) {
		e.ShuffleQuestions = true
	})
	userID := uuid.New()
	rig.enroll(userID)

	paper, err := rig.session.StartOrResume(context.Background(), exam.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(paper.Questions) != 3 {
		t.Fatalf("expected full paper, got %d questions", len(paper.Questions))
	}
	if paper.RemainingSeconds <= 0 {
		t.Fatalf("expected positive remaining time, got %d", paper.RemainingSeconds)
	}

	for _, q := range paper.Questions {
		if _, err := rig.answer.Save(context.Background(), paper.AttemptID, userID, &model.SaveAnswerRequest{
			QuestionID: q.ID,
			Answer:     model.NewScalarAnswer("A"),
		}); err != nil {
			t.Fatalf("save %s: %v", q.ID, err)
		}
	}

	summary, err := rig.scoring.Submit(context.Background(), paper.AttemptID, userID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if *summary.Score != 10 || *summary.Percentage != 100 {
		t.Fatalf("expected perfect score, got score=%v pct=%v", *summary.Score, *summary.Percentage)
	}
}
