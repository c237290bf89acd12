package evaluation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

var studentCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// SessionRequest asks for a respondent session on the survey behind UniqueLink
type SessionRequest struct {
	UniqueLink  string
	StudentCode string // ignored unless the survey requires a code
}

type SurveySummary struct {
	ID          uint              `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Type        models.SurveyType `json:"type"`
}

type StudentSummary struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Diplomatura *string `json:"diplomatura"`
}

type TeacherSummary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Subject     *string `json:"subject"`
	Diplomatura *string `json:"diplomatura"`
	Photo       *string `json:"photo"`
	Order       int     `json:"order"`
	Evaluated   bool    `json:"evaluated"`
}

type Progress struct {
	EvaluatedCount      int64  `json:"evaluatedCount"`
	TotalTeachers       int64  `json:"totalTeachers"`
	EvaluatedTeacherIDs []uint `json:"evaluatedTeacherIds"`
	Completed           bool   `json:"completed"`
}

// SessionDescriptor is what a respondent needs to continue a session
type SessionDescriptor struct {
	ID        uint             `json:"id"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Resumed   bool             `json:"resumed"`
	Survey    SurveySummary    `json:"survey"`
	Student   *StudentSummary  `json:"student"`
	Teachers  []TeacherSummary `json:"teachers"`
	Progress  Progress         `json:"progress"`
}

// NormalizeStudentCode trims and upper-cases a student code
func NormalizeStudentCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidStudentCode reports whether an already normalized code has the expected format
func ValidStudentCode(code string) bool {
	return studentCodePattern.MatchString(code)
}

// IssueSession validates the survey and, when required, the student code, then returns
// a session. An identified student with an open session gets that session back.
func (s *Service) IssueSession(ctx context.Context, req SessionRequest) (*SessionDescriptor, error) {
	survey, err := s.loadSurvey(ctx, req.UniqueLink)
	if err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyActive {
		return nil, ErrSurveyNotActive
	}
	now := s.now()
	if err := checkWindow(survey, now); err != nil {
		return nil, err
	}

	var student *models.Student
	if survey.RequiresCode {
		student, err = s.identifyStudent(ctx, req.StudentCode)
		if err != nil {
			return nil, err
		}

		open, err := s.findOpenSession(ctx, survey.ID, student.ID, now)
		if err != nil {
			return nil, err
		}
		if open != nil {
			return s.describe(ctx, survey, open, student, true)
		}
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	session := models.Session{
		SurveyID:     survey.ID,
		SessionToken: token,
		ExpiresAt:    now.Add(s.sessionDuration),
	}
	if student != nil {
		session.StudentID = &student.ID
	}
	if err := gorm.G[models.Session](s.db).Create(ctx, &session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.describe(ctx, survey, &session, student, false)
}

func (s *Service) identifyStudent(ctx context.Context, rawCode string) (*models.Student, error) {
	code := NormalizeStudentCode(rawCode)
	if !ValidStudentCode(code) {
		return nil, ErrInvalidCodeFormat
	}

	student, err := gorm.G[models.Student](s.db).Where("code = ?", code).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if student.Status != models.StatusActive {
		return nil, ErrStudentInactive
	}
	return &student, nil
}

// findOpenSession returns the newest unexpired, uncompleted session of a student, if any
func (s *Service) findOpenSession(ctx context.Context, surveyID, studentID uint, now time.Time) (*models.Session, error) {
	sessions, err := gorm.G[models.Session](s.db).
		Where("survey_id = ? AND student_id = ? AND completed = ?", surveyID, studentID, false).
		Order("created_at DESC").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open sessions: %w", err)
	}
	for i := range sessions {
		if !sessions[i].Expired(now) {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// GetSession returns the session behind token with its current progress
func (s *Service) GetSession(ctx context.Context, uniqueLink, token string) (*SessionDescriptor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}
	survey, err := s.loadSurvey(ctx, uniqueLink)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.SurveyID != survey.ID {
		return nil, ErrSessionMismatch
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	var student *models.Student
	if session.StudentID != nil {
		loaded, err := gorm.G[models.Student](s.db).Where("id = ?", *session.StudentID).First(ctx)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load student: %w", err)
		}
		if err == nil {
			student = &loaded
		}
	}
	return s.describe(ctx, survey, session, student, false)
}

func (s *Service) describe(ctx context.Context, survey *models.Survey, session *models.Session, student *models.Student, resumed bool) (*SessionDescriptor, error) {
	links, err := loadSurveyTeachers(ctx, s.db, survey.ID)
	if err != nil {
		return nil, err
	}
	responses, err := gorm.G[models.Response](s.db).
		Where("session_id = ? AND completed = ?", session.ID, true).
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session responses: %w", err)
	}

	evaluated := make(map[uint]bool, len(responses))
	evaluatedIDs := []uint{}
	for _, response := range responses {
		if response.TeacherID != nil && !evaluated[*response.TeacherID] {
			evaluated[*response.TeacherID] = true
			evaluatedIDs = append(evaluatedIDs, *response.TeacherID)
		}
	}

	descriptor := &SessionDescriptor{
		ID:        session.ID,
		Token:     session.SessionToken,
		ExpiresAt: session.ExpiresAt,
		Resumed:   resumed,
		Survey: SurveySummary{
			ID:          survey.ID,
			Title:       survey.Title,
			Description: survey.Description,
			Type:        survey.Type,
		},
		Teachers: toTeacherSummaries(links, evaluated),
		Progress: Progress{
			EvaluatedCount:      int64(len(responses)),
			TotalTeachers:       int64(len(links)),
			EvaluatedTeacherIDs: evaluatedIDs,
			Completed:           session.Completed,
		},
	}
	if student != nil {
		descriptor.Student = &StudentSummary{
			Name:        student.Name,
			Code:        student.Code,
			Diplomatura: student.Diplomatura,
		}
	}
	return descriptor, nil
}

func toTeacherSummaries(links []models.SurveyTeacher, evaluated map[uint]bool) []TeacherSummary {
	teachers := make([]TeacherSummary, 0, len(links))
	for _, link := range links {
		teachers = append(teachers, TeacherSummary{
			ID:          link.TeacherID,
			Name:        link.Teacher.Name,
			Subject:     link.Teacher.Subject,
			Diplomatura: link.Teacher.Diplomatura,
			Photo:       link.Teacher.Photo,
			Order:       link.Order,
			Evaluated:   evaluated[link.TeacherID],
		})
	}
	return teachers
}
