package api

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/MonkyMars/gecho"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	"github.com/CLDWare/evaluations-backend/config"
	_ "github.com/CLDWare/evaluations-backend/docs"
	"github.com/CLDWare/evaluations-backend/internal/auth"
	"github.com/CLDWare/evaluations-backend/internal/evaluation"
	"github.com/CLDWare/evaluations-backend/internal/handlers"
	"github.com/CLDWare/evaluations-backend/internal/live"
	"github.com/CLDWare/evaluations-backend/internal/middleware"
)

// API holds the API dependencies
type API struct {
	Evaluation *evaluation.Service
	Auth       *auth.Service
	Hub        *live.Hub

	versionHandler        *handlers.VersionHandler
	surveyHandler         *handlers.SurveyHandler
	sessionHandler        *handlers.SessionHandler
	responseHandler       *handlers.ResponseHandler
	authenticationHandler *handlers.AuthenticationHandler
	teacherHandler        *handlers.TeacherHandler
	studentHandler        *handlers.StudentHandler
	adminSurveyHandler    *handlers.AdminSurveyHandler
	websocketHandler      *handlers.WebsocketHandler
	authMiddleware        middleware.AuthenticationMiddleware
}

// NewAPI creates a new API instance. Progress of recorded responses is broadcast on the returned API's Hub,
// which the caller runs.
func NewAPI(db *gorm.DB) *API {
	cfg := config.Get()

	hub := live.NewHub()
	evaluationService := evaluation.NewService(cfg, db)
	evaluationService.SetBroadcaster(hub)
	authService := auth.NewService(cfg, db)

	return &API{
		Evaluation: evaluationService,
		Auth:       authService,
		Hub:        hub,

		versionHandler:        handlers.NewVersionHandler(cfg),
		surveyHandler:         handlers.NewSurveyHandler(cfg, evaluationService),
		sessionHandler:        handlers.NewSessionHandler(cfg, evaluationService),
		responseHandler:       handlers.NewResponseHandler(cfg, evaluationService),
		authenticationHandler: handlers.NewAuthenticationHandler(cfg, authService),
		teacherHandler:        handlers.NewTeacherHandler(cfg, evaluationService),
		studentHandler:        handlers.NewStudentHandler(cfg, evaluationService),
		adminSurveyHandler:    handlers.NewAdminSurveyHandler(cfg, evaluationService),
		websocketHandler:      handlers.NewWebsocketHandler(cfg, evaluationService, hub),
		authMiddleware:        middleware.AuthenticationMiddleware{Auth: authService},
	}
}

// CreateMux creates and configures the HTTP mux
func (api *API) CreateMux() *http.ServeMux {
	mux := http.NewServeMux()
	api.setupRoutes(mux)
	return mux
}

// setupRoutes configures all the routes.
func (api *API) setupRoutes(mux *http.ServeMux) {
	// Version route
	mux.HandleFunc("/v", api.versionHandler.GetVersion)
	// API docs
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Respondent routes
	mux.HandleFunc("GET /api/survey/{link}", api.surveyHandler.GetSurvey)
	mux.HandleFunc("POST /api/survey/{link}/session", api.sessionHandler.PostSession)
	mux.HandleFunc("GET /api/survey/{link}/session", api.sessionHandler.GetSession)
	mux.HandleFunc("POST /api/survey/{link}/response", api.responseHandler.PostResponse)

	// Admin authentication
	mux.HandleFunc("POST /api/admin/login", api.authenticationHandler.PostLogin)
	mux.HandleFunc("POST /api/admin/logout", api.authenticationHandler.PostLogout)
	mux.HandleFunc("GET /api/admin/check-session", api.authenticationHandler.GetCheckSession)

	// Admin routes, all behind the admin session cookie
	required := api.authMiddleware.Required
	mux.HandleFunc("GET /api/admin/me", required(api.authenticationHandler.GetMe))

	mux.HandleFunc("GET /api/admin/teachers", required(api.teacherHandler.GetTeachers))
	mux.HandleFunc("POST /api/admin/teachers", required(api.teacherHandler.PostTeacher))
	mux.HandleFunc("POST /api/admin/teachers/bulk", required(api.teacherHandler.PostTeachersBulk))
	mux.HandleFunc("PUT /api/admin/teachers/{id}", required(api.teacherHandler.PutTeacher))

	mux.HandleFunc("GET /api/admin/students", required(api.studentHandler.GetStudents))
	mux.HandleFunc("POST /api/admin/students", required(api.studentHandler.PostStudent))
	mux.HandleFunc("POST /api/admin/students/bulk", required(api.studentHandler.PostStudentsBulk))

	mux.HandleFunc("GET /api/admin/surveys", required(api.adminSurveyHandler.GetSurveys))
	mux.HandleFunc("POST /api/admin/surveys", required(api.adminSurveyHandler.PostSurvey))
	mux.HandleFunc("POST /api/admin/surveys/bulk", required(api.adminSurveyHandler.PostSurveysBulk))
	mux.HandleFunc("GET /api/admin/surveys/{id}", required(api.adminSurveyHandler.GetSurvey))
	mux.HandleFunc("PATCH /api/admin/surveys/{id}/status", required(api.adminSurveyHandler.PatchSurveyStatus))
	mux.HandleFunc("GET /api/admin/surveys/{id}/responses", required(api.adminSurveyHandler.GetSurveyResponses))
	mux.HandleFunc("GET /api/admin/surveys/{id}/metrics", required(api.adminSurveyHandler.GetSurveyMetrics))
	mux.HandleFunc("GET /api/admin/surveys/{id}/live", required(api.websocketHandler.GetSurveyLive))
	mux.HandleFunc("GET /api/admin/live", required(api.websocketHandler.GetLive))

	// fallback route - must be last because it matches all routes.
	mux.HandleFunc("/", fallBack)
}

// ApplyMiddleware applies middleware to a handler
func ApplyMiddleware(handler http.Handler) http.Handler {
	return chimiddleware.RealIP(
		middleware.LoggingMiddleware(
			chimiddleware.Recoverer(
				middleware.CORSMiddleware(handler),
			),
		),
	)
}

func fallBack(w http.ResponseWriter, r *http.Request) {
	gecho.NotFound(w).Send()
}
