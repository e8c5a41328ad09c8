package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
)

// PortalHandler handles candidate-facing endpoints (exam taking).
type PortalHandler struct {
	examService      *service.ExamService
	sessionService   *service.SessionService
	answerService    *service.AnswerService
	violationService *service.ViolationService
	scoringService   *service.ScoringService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(
	examService *service.ExamService,
	sessionService *service.SessionService,
	answerService *service.AnswerService,
	violationService *service.ViolationService,
	scoringService *service.ScoringService,
) *PortalHandler {
	return &PortalHandler{
		examService:      examService,
		sessionService:   sessionService,
		answerService:    answerService,
		violationService: violationService,
		scoringService:   scoringService,
	}
}

// ListAvailableExams godoc
// GET /api/v1/portal/exams/available
// Returns published exams annotated with the candidate's eligibility.
func (h *PortalHandler) ListAvailableExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListAvailable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.AvailableExam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetSession godoc
// GET /api/v1/portal/exams/:exam_id/session
// Starts a new attempt or resumes the live one; idempotent.
func (h *PortalHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.sessionService.StartOrResume(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": paper})
}

// SaveAnswer godoc
// POST /api/v1/portal/attempts/:attempt_id/answers
// Grades and stores one answer; resubmission replaces the previous one.
func (h *PortalHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	saved, err := h.answerService.Save(c.Request.Context(), attemptID, claims.UserID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer": saved})
}

// SaveAnswersBulk godoc
// POST /api/v1/portal/attempts/:attempt_id/answers/bulk
// Saves a batch of answers; per-item outcomes are reported individually.
func (h *PortalHandler) SaveAnswersBulk(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.BulkSaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, err := h.answerService.SaveBulk(c.Request.Context(), attemptID, claims.UserID, &req)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// Submit godoc
// POST /api/v1/portal/attempts/:attempt_id/submit
// Finalizes the attempt and returns the scored summary.
func (h *PortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.scoringService.Submit(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": summary})
}

// RecordViolation godoc
// POST /api/v1/portal/attempts/:attempt_id/violations
// Records a proctoring integrity event; may auto-fail the attempt.
func (h *PortalHandler) RecordViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.RecordViolationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.violationService.Record(c.Request.Context(), attemptID, claims.UserID, req.Type)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"violation": outcome})
}

// GetAttempt godoc
// GET /api/v1/portal/attempts/:attempt_id
// Returns the attempt summary; candidates can only read their own.
func (h *PortalHandler) GetAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	summary, err := h.sessionService.GetAttempt(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": summary})
}
