package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/middleware"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
)

// ProctorHandler handles proctor-facing endpoints (results, publication).
type ProctorHandler struct {
	examService *service.ExamService
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(examService *service.ExamService) *ProctorHandler {
	return &ProctorHandler{examService: examService}
}

// GetExamResults godoc
// GET /api/v1/proctor/exams/:exam_id/results
// Returns attempt results for an exam, paginated.
func (h *ProctorHandler) GetExamResults(c *gin.Context) {
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

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	results, total, err := h.examService.Results(c.Request.Context(), examID, page, perPage)
	if err != nil {
		failFromService(c, err)
		return
	}
	if results == nil {
		results = []repository.AttemptResult{}
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// PublishResults godoc
// POST /api/v1/proctor/exams/:exam_id/publish-results
// Publishes the exam's results; publishing twice is rejected.
func (h *ProctorHandler) PublishResults(c *gin.Context) {
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

	if err := h.examService.PublishResults(c.Request.Context(), examID); err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"published": true})
}
