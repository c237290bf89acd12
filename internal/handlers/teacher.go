package handlers

import (
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// TeacherHandler handles admin requests about teachers
type TeacherHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewTeacherHandler creates a new TeacherHandler
func NewTeacherHandler(cfg *config.Config, service *evaluation.Service) *TeacherHandler {
	return &TeacherHandler{
		config:  cfg,
		service: service,
	}
}

type BulkTeachersRequest struct {
	Teachers []evaluation.TeacherInput `json:"teachers"`
}

// GetTeachers
//
// @Summary		List teachers
// @Tags			teacher requiresAuth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=[]evaluation.TeacherRecord}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/teachers [get]
func (h *TeacherHandler) GetTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.service.ListTeachers(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(teachers).Send()
}

// PostTeacher
//
// @Summary		Create a teacher
// @Tags			teacher requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		evaluation.TeacherInput	true	"Teacher"
// @Success		201	{object}	apiResponses.BaseResponse{data=evaluation.TeacherRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/teachers [post]
func (h *TeacherHandler) PostTeacher(w http.ResponseWriter, r *http.Request) {
	var body evaluation.TeacherInput
	if !decodeJSON(w, r, &body) {
		return
	}

	teacher, err := h.service.CreateTeacher(r.Context(), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Created(w).WithData(teacher).Send()
}

// PutTeacher
//
// @Summary		Update a teacher
// @Tags			teacher requiresAuth
// @Accept			json
// @Produce		json
// @Param			id		path		int						true	"Teacher id"
// @Param			body	body		evaluation.TeacherInput	true	"Teacher"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.TeacherRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		404	{object}	apiResponses.NotFoundError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/teachers/{id} [put]
func (h *TeacherHandler) PutTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body evaluation.TeacherInput
	if !decodeJSON(w, r, &body) {
		return
	}

	teacher, err := h.service.UpdateTeacher(r.Context(), id, body)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(teacher).Send()
}

// PostTeachersBulk
//
// @Summary		Import teachers
// @Description	Create several teachers. Invalid entries are reported per item and never abort the others.
// @Tags			teacher requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		BulkTeachersRequest	true	"Teachers"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.BulkResult}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Router			/api/admin/teachers/bulk [post]
func (h *TeacherHandler) PostTeachersBulk(w http.ResponseWriter, r *http.Request) {
	var body BulkTeachersRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Teachers) == 0 {
		gecho.BadRequest(w).WithMessage("'teachers' must contain at least one teacher").Send()
		return
	}

	gecho.Success(w).WithData(h.service.BulkCreateTeachers(r.Context(), body.Teachers)).Send()
}
