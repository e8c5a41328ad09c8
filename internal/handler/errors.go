package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/traindesk/traindesk-backend/internal/response"
	"github.com/traindesk/traindesk-backend/internal/service"
)

// failFromService maps a service error onto the HTTP status and error code
// the client contract documents. Unknown errors become 500 INTERNAL_ERROR.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound),
		errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotAttemptOwner)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrExamNotOpen):
		response.Fail(c, http.StatusConflict, response.ErrExamNotOpen)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrAttendanceBelowMinimum):
		response.Fail(c, http.StatusForbidden, response.ErrAttendanceBelowMin)
	case errors.Is(err, service.ErrMaxAttemptsReached):
		response.Fail(c, http.StatusConflict, response.ErrMaxAttemptsReached)
	case errors.Is(err, service.ErrAttemptNotInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAttemptNotInProgress)
	case errors.Is(err, service.ErrQuestionNotAssigned):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotAssigned)
	case errors.Is(err, service.ErrAttemptExpired):
		response.Fail(c, http.StatusConflict, response.ErrAttemptExpired)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, service.ErrResultsAlreadyPublished):
		response.Fail(c, http.StatusConflict, response.ErrResultsAlreadyPublic)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
