package workorderserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	wohttpmapper "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/http/mapper"
	woapp "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	woports "github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	apierrors "github.com/Apurer/go-gin-workorders/internal/shared/errors"
)

var problemResponder = apierrors.NewChainedResponder("", mapWorkOrderError)

// mapWorkOrderError translates application and domain errors into problems.
// AlreadyClaimed is checked before InvalidTransition since retries may wrap both.
func mapWorkOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, woports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrAlreadyClaimed):
		return apierrors.ErrAlreadyClaimed.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrOrderLocked):
		return apierrors.ErrOrderLocked.WithDetail(err.Error()), true
	case errors.Is(err, domain.ErrInvalidTransition):
		return apierrors.ErrInvalidTransition.WithDetail(err.Error()), true
	case errors.Is(err, woapp.ErrForbidden):
		return apierrors.ErrForbidden.WithDetail(err.Error()), true
	case errors.Is(err, woapp.ErrValidation),
		errors.Is(err, domain.ErrUnknownStatus),
		errors.Is(err, wohttpmapper.ErrInvalidDecision),
		errors.Is(err, wohttpmapper.ErrUnsupportedStatus):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, woports.ErrAlreadyExists):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	problemResponder.Respond(c, problem)
}

// respondError answers malformed requests that never reached the service.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	problemResponder.RespondError(c, err)
}
