package handlers

import (
	"net/http"

	"github.com/MonkyMars/gecho"

	"github.com/CLDWare/evaluations-backend/config"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/pkg/response"
)

// StudentHandler handles admin requests about students
type StudentHandler struct {
	config  *config.Config
	service *evaluation.Service
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(cfg *config.Config, service *evaluation.Service) *StudentHandler {
	return &StudentHandler{
		config:  cfg,
		service: service,
	}
}

type BulkStudentsRequest struct {
	Students []evaluation.StudentInput `json:"students"`
}

// GetStudents
//
// @Summary		List students
// @Tags			student requiresAuth
// @Produce		json
// @Success		200	{object}	apiResponses.BaseResponse{data=[]evaluation.StudentRecord}
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/students [get]
func (h *StudentHandler) GetStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Success(w).WithData(students).Send()
}

// PostStudent
//
// @Summary		Create a student
// @Description	Create a student. The 8 character code is stored upper-cased and must be unique.
// @Tags			student requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		evaluation.StudentInput	true	"Student"
// @Success		201	{object}	apiResponses.BaseResponse{data=evaluation.StudentRecord}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Failure		409	{object}	apiResponses.ConflictError
// @Failure		500	{object}	apiResponses.InternalServerError
// @Router			/api/admin/students [post]
func (h *StudentHandler) PostStudent(w http.ResponseWriter, r *http.Request) {
	var body evaluation.StudentInput
	if !decodeJSON(w, r, &body) {
		return
	}

	student, err := h.service.CreateStudent(r.Context(), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	gecho.Created(w).WithData(student).Send()
}

// PostStudentsBulk
//
// @Summary		Import students
// @Description	Create several students. Taken codes are skipped and reported, invalid entries are reported as errors.
// @Tags			student requiresAuth
// @Accept			json
// @Produce		json
// @Param			body	body		BulkStudentsRequest	true	"Students"
// @Success		200	{object}	apiResponses.BaseResponse{data=evaluation.BulkResult}
// @Failure		400	{object}	apiResponses.BadRequestError
// @Failure		401	{object}	apiResponses.UnauthorizedError
// @Router			/api/admin/students/bulk [post]
func (h *StudentHandler) PostStudentsBulk(w http.ResponseWriter, r *http.Request) {
	var body BulkStudentsRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Students) == 0 {
		gecho.BadRequest(w).WithMessage("'students' must contain at least one student").Send()
		return
	}

	gecho.Success(w).WithData(h.service.BulkCreateStudents(r.Context(), body.Students)).Send()
}
