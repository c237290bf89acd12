package response

import (
	"errors"
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

const (
	ErrorCodeHeader        = "X-Error-Code"
	MissingQuestionsHeader = "X-Missing-Questions"
	InvalidQuestionsHeader = "X-Invalid-Questions"
)

// StatusFor returns the HTTP status a domain error kind is reported with
func StatusFor(kind evaluation.Kind) int {
	switch kind {
	case evaluation.KindNotFound:
		return http.StatusNotFound
	case evaluation.KindForbidden:
		return http.StatusForbidden
	case evaluation.KindValidation:
		return http.StatusBadRequest
	case evaluation.KindExpired:
		return http.StatusGone
	case evaluation.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Error writes err as an error response. Domain and input errors keep their message,
// anything else is logged and reported as a bare 500.
func Error(w http.ResponseWriter, err error) {
	var inputErr *evaluation.InputError
	if errors.As(err, &inputErr) {
		gecho.BadRequest(w).WithMessage(inputErr.Error()).Send()
		return
	}

	domainErr, ok := evaluation.AsError(err)
	if !ok {
		logger.Err(err)
		gecho.InternalServerError(w).Send()
		return
	}

	w.Header().Set(ErrorCodeHeader, domainErr.Code)
	if len(domainErr.Questions) > 0 {
		header := InvalidQuestionsHeader
		if errors.Is(domainErr, evaluation.ErrMissingRequiredAnswers) {
			header = MissingQuestionsHeader
		}
		w.Header().Set(header, evaluation.JoinIDs(domainErr.Questions))
	}

	message := domainErr.Error()
	switch domainErr.Kind {
	case evaluation.KindNotFound:
		gecho.NotFound(w).WithMessage(message).Send()
	case evaluation.KindForbidden:
		gecho.Forbidden(w).WithMessage(message).Send()
	case evaluation.KindValidation:
		gecho.BadRequest(w).WithMessage(message).Send()
	default:
		gecho.NewErr(w).WithStatus(StatusFor(domainErr.Kind)).WithMessage(message).Send()
	}
}
