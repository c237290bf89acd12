package handlers

import (
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// SessionHandler issues and describes respondent sessions
type SessionHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(cfg *config.Config, service *evaluation.Service) *SessionHandler {
	return &SessionHandler{
		config:  cfg,
		service: service,
	}
}

type PostSessionRequest struct {
	StudentCode string `json:"studentCode" example:"ABCD1234"`
}

// PostSession
//
// @Summary		Start a survey session
// @Description	Start a respondent session. Surveys that require a code identify the student by studentCode
// @Description	and resume the student's open session when there is one (200 instead of 201).
// @Tags			session
// @Accept			json
// @Produce		json
// @Param			link	path		string				true	"Unique survey link"
// @Param			body	body		PostSessionRequest	false	"Student code"
// @Success		201	{object}	apiResponses.BaseResponse{data=evaluation.SessionDescriptor}
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SessionDescriptor}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		403	{object}	apiResponses.ForbiddenError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/survey/{link}/session [post]
func (h *SessionHandler) PostSession(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodPost); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	var body PostSessionRequest
	// an empty body is a valid anonymous request
	if !decodeOptionalJSON(w, r, &body) {
		return
	}

	descriptor, err := h.service.IssueSession(r.Context(), evaluation.SessionRequest{
		UniqueLink:  r.PathValue("link"),
		StudentCode: body.StudentCode,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	if descriptor.Resumed {
		gecho.Success(w).WithData(descriptor).Send()
		return
	}
	gecho.Created(w).WithData(descriptor).Send()
}

// GetSession
//
// @Summary		Get a survey session
// @Description	Get a session with its teachers and progress by token
// @Tags			session
// @Produce		json
// @Param			link	path		string	true	"Unique survey link"
// @Param			token	query		string	true	"Session token"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SessionDescriptor}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		403	{object}	apiResponses.ForbiddenError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Failure		410	{object}	apiResponses.GoneError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/survey/{link}/session [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodGet); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	descriptor, err := h.service.GetSession(r.Context(), r.PathValue("link"), r.URL.Query().Get("token"))
	if err != nil {
		response.Error(w, err)
		return
	}

	gecho.Success(w).WithData(descriptor).Send()
}
