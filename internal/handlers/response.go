package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// ResponseHandler records respondent answers
type ResponseHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewResponseHandler creates a new ResponseHandler
func NewResponseHandler(cfg *config.Config, service *evaluation.Service) *ResponseHandler {
	return &ResponseHandler{
		config:  cfg,
		service: service,
	}
}

type PostResponseRequest struct {
	SessionToken string                     `json:"sessionToken"`
	TeacherID    *uint                      `json:"teacherId" example:"1"`
	Answers      map[string]json.RawMessage `json:"answers" swaggertype:"object"`
}

type ResponseInfo struct {
	ID        uint `json:"id"`
	Completed bool `json:"completed"`
}

type SessionProgressInfo struct {
	EvaluatedCount int64 `json:"evaluatedCount"`
	TotalTeachers  int64 `json:"totalTeachers"`
	AllCompleted   bool  `json:"allCompleted"`
}

type PostResponseSuccessResponse struct {
	Response ResponseInfo        `json:"response"`
	Session  SessionProgressInfo `json:"session"`
}

// PostResponse
//
// @Summary		Submit answers
// @Description	Submit the answers of a session for one teacher of the survey. Answers are keyed by question id.
// @Description	Missing required answers are reported together, their ids also in the X-Missing-Questions header.
// @Tags			response
// @Accept			json
// @Produce		json
// @Param			link	path		string				true	"Unique survey link"
// @Param			body	body		PostResponseRequest	true	"Session token, teacher and answers"
// @Success		201	{object}	apiResponses.BaseResponse{data=PostResponseSuccessResponse}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		403	{object}	apiResponses.ForbiddenError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Failure		409	{object}	apiResponses.ConflictError
// @Failure		410	{object}	apiResponses.GoneError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/survey/{link}/response [post]
func (h *ResponseHandler) PostResponse(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodPost); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	var body PostResponseRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.service.RecordResponse(r.Context(), evaluation.Submission{
		UniqueLink:   r.PathValue("link"),
		SessionToken: body.SessionToken,
		TeacherID:    body.TeacherID,
		Answers:      body.Answers,
		UserAgent:    r.UserAgent(),
		RemoteAddr:   r.RemoteAddr,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	gecho.Created(w).WithData(PostResponseSuccessResponse{
		Response: ResponseInfo{ID: result.ResponseID, Completed: result.Completed},
		Session: SessionProgressInfo{
			EvaluatedCount: result.EvaluatedCount,
			TotalTeachers:  result.TotalTeachers,
			AllCompleted:   result.AllCompleted,
		},
	}).Send()
}
