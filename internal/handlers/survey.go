package handlers

import (
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// SurveyHandler serves public survey definitions to respondents
type SurveyHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewSurveyHandler creates a new SurveyHandler
func NewSurveyHandler(cfg *config.Config, service *evaluation.Service) *SurveyHandler {
	return &SurveyHandler{
		config:  cfg,
		service: service,
	}
}

// GetSurvey
//
// @Summary		Get a public survey
// @Description	Get the questions and ordered teachers of an active survey by its unique link
// @Tags			survey
// @Produce		json
// @Param			link	path		string	true	"Unique survey link"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.SurveyDefinition}
// @Failure		403	{object}	apiResponses.ForbiddenError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/survey/{link} [get]
func (h *SurveyHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	if err := gecho.Handlers.HandleMethod(w, r, http.MethodGet); err != nil {
		err.Send() // Automatically sends 405 Method Not Allowed
		return
	}

	definition, err := h.service.PublicSurvey(r.Context(), r.PathValue("link"))
	if err != nil {
		response.Error(w, err)
		return
	}

	gecho.Success(w).WithData(definition).Send()
}
