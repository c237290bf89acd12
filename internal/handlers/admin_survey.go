package handlers

import (
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// AdminSurveyHandler handles admin requests about surveys and their results
type AdminSurveyHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewAdminSurveyHandler creates a new AdminSurveyHandler
func NewAdminSurveyHandler(cfg *config.Config, service *evaluation.Service) *AdminSurveyHandler {
	return &AdminSurveyHandler{
		config:  cfg,
		service: service,
	}
}

type BulkSurveysRequest struct {
	Surveys []evaluation.SurveyInput `json:"surveys"`
}

type PatchSurveyStatusRequest struct {
	Status models.SurveyStatus `json:"status" example:"active"`
}

func (h *AdminSurveyHandler) withPublicLink(record *evaluation.SurveyRecord) *evaluation.SurveyRecord {
	record.PublicLink = h.config.PublicSurveyURL(record.UniqueLink)
	return record
}

// GetSurveys
//
// @Summary		List surveys
// @Tags			admin survey requiresAuth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=[]evaluation.SurveyRecord}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/surveys [get]
func (h *AdminSurveyHandler) GetSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.service.ListSurveys(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	for i := range surveys {
		h.withPublicLink(&surveys[i])
	}
	gecho.Success(w).WithData(surveys).Send()
}

// PostSurvey
//
// @Summary		Create a survey
// @Description	Create a survey with its questions and ordered teachers. Teachers are referenced by id or name.
// @Description	Status defaults to draft and requiresCode to true. A unique link is generated.
// @Tags			admin survey requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		evaluation.SurveyInput	true	"Survey"
// @Success		201	{object}	apiResponses.BaseResponse{data=evaluation.SurveyRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/surveys [post]
func (h *AdminSurveyHandler) PostSurvey(w http.ResponseWriter, r *http.Request) {
	var body evaluation.SurveyInput
	if !decodeJSON(w, r, &body) {
		return
	}

	survey, err := h.service.CreateSurvey(r.Context(), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Created(w).WithData(h.withPublicLink(survey)).Send()
}

// PostSurveysBulk
//
// @Summary		Import surveys
// @Description	Create several surveys. Invalid entries are reported per item and never abort the others.
// @Tags			admin survey requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		BulkSurveysRequest	true	"Surveys"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.BulkResult}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Router			/api/admin/surveys/bulk [post]
func (h *AdminSurveyHandler) PostSurveysBulk(w http.ResponseWriter, r *http.Request) {
	var body BulkSurveysRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Surveys) == 0 {
		gecho.BadRequest(w).WithMessage("'surveys' must contain at least one survey").Send()
		return
	}

	gecho.Success(w).WithData(h.service.BulkCreateSurveys(r.Context(), body.Surveys)).Send()
}

// GetSurvey
//
// @Summary		Get a survey
// @Tags			admin survey requiresAuth
// @Produce		json
// @Param			id	path		int	true	"Survey id"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SurveyRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Router			/api/admin/surveys/{id} [get]
func (h *AdminSurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	survey, err := h.service.SurveyByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(h.withPublicLink(survey)).Send()
}

// PatchSurveyStatus
//
// @Summary		Change a survey's status
// @Tags			admin survey requiresAuth
// @Accept			json
// @Produce		json
// @Param			id		path		int							true	"Survey id"
// @Param			body	body		PatchSurveyStatusRequest	true	"New status"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SurveyRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Router			/api/admin/surveys/{id}/status [patch]
func (h *AdminSurveyHandler) PatchSurveyStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body PatchSurveyStatusRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	survey, err := h.service.SetSurveyStatus(r.Context(), id, body.Status)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(h.withPublicLink(survey)).Send()
}

// GetSurveyResponses
//
// @Summary		List a survey's responses
// @Tags			admin survey requiresAuth
// @Produce		json
// @Param			id	path		int	true	"Survey id"
// @Success		200	{object}	apiResponses.BaseResponse{data=[]evaluation.ResponseRecord}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Router			/api/admin/surveys/{id}/responses [get]
func (h *AdminSurveyHandler) GetSurveyResponses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	responses, err := h.service.ListResponses(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(responses).Send()
}

// GetSurveyMetrics
//
// @Summary		Get a survey's metrics
// @Description	Session completion and per teacher rating averages
// @Tags			admin survey requiresAuth
// @Produce		json
// @Param			id	path		int	true	"Survey id"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SurveyMetrics}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Router			/api/admin/surveys/{id}/metrics [get]
func (h *AdminSurveyHandler) GetSurveyMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	metrics, err := h.service.SurveyMetrics(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(metrics).Send()
}
