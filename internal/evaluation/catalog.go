package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

type QuestionInput struct {
	Type        models.QuestionType `json:"type"`
	Question    string              `json:"question"`
	Description *string             `json:"description"`
	Required    *bool               `json:"required"` // defaults to true
	Options     []string            `json:"options"`
	MinValue    *float64            `json:"minValue"`
	MaxValue    *float64            `json:"maxValue"`
}

// SurveyInput describes a survey to create. Teachers may be referenced by id, by name, or both.
type SurveyInput struct {
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	Type           models.SurveyType   `json:"type"`
	Status         models.SurveyStatus `json:"status"` // defaults to draft
	StartsAt       *time.Time          `json:"startsAt"`
	EndsAt         *time.Time          `json:"endsAt"`
	RequiresCode   *bool               `json:"requiresCode"` // defaults to true
	AllowAnonymous bool                `json:"allowAnonymous"`
	Questions      []QuestionInput     `json:"questions"`
	TeacherIDs     []uint              `json:"teacherIds"`
	TeacherNames   []string            `json:"teacherNames"`
}

// InputError reports an invalid SurveyInput
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (in *SurveyInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &InputError{Field: "title", Message: "is required"}
	}
	if !in.Type.Valid() {
		return &InputError{Field: "type", Message: fmt.Sprintf("unknown survey type %q", in.Type)}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &InputError{Field: "status", Message: fmt.Sprintf("unknown survey status %q", in.Status)}
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return &InputError{Field: "endsAt", Message: "must not be before startsAt"}
	}
	for i, q := range in.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		if !q.Type.Valid() {
			return &InputError{Field: field + ".type", Message: fmt.Sprintf("unknown question type %q", q.Type)}
		}
		if strings.TrimSpace(q.Question) == "" {
			return &InputError{Field: field + ".question", Message: "is required"}
		}
		if q.Type.IsChoice() && len(q.Options) == 0 {
			return &InputError{Field: field + ".options", Message: "are required for choice questions"}
		}
		if q.MinValue != nil && q.MaxValue != nil && *q.MinValue > *q.MaxValue {
			return &InputError{Field: field + ".minValue", Message: "must not exceed maxValue"}
		}
	}
	return nil
}

// SurveyRecord is an admin view of a stored survey
type SurveyRecord struct {
	SurveyDefinition
	PublicLink string    `json:"publicLink,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Sessions   int64     `json:"sessions"`
	Responses  int64     `json:"responses"`
}

// CreateSurvey stores a survey with its questions and ordered teachers under a fresh unique link
func (s *Service) CreateSurvey(ctx context.Context, in SurveyInput) (*SurveyRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	teacherIDs, err := s.resolveTeachers(ctx, in.TeacherIDs, in.TeacherNames)
	if err != nil {
		return nil, err
	}

	survey := models.Survey{
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Type:           in.Type,
		Status:         in.Status,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
		RequiresCode:   true,
		AllowAnonymous: in.AllowAnonymous,
	}
	if survey.Status == "" {
		survey.Status = models.SurveyDraft
	}
	if in.RequiresCode != nil {
		survey.RequiresCode = *in.RequiresCode
	}

	for attempt := 0; ; attempt++ {
		survey.ID = 0
		survey.UniqueLink, err = GenerateLink(s.linkLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate unique link: %w", err)
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := gorm.G[models.Survey](tx).Create(ctx, &survey); err != nil {
				return err
			}
			return createSurveyChildren(ctx, tx, survey.ID, in.Questions, teacherIDs)
		})
		// a colliding link is retried a few times before giving up
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < 3 {
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	return s.SurveyByID(ctx, survey.ID)
}

func createSurveyChildren(ctx context.Context, tx *gorm.DB, surveyID uint, inputs []QuestionInput, teacherIDs []uint) error {
	if len(inputs) > 0 {
		questions := make([]models.Question, 0, len(inputs))
		for i, q := range inputs {
			question := models.Question{
				SurveyID:    surveyID,
				Order:       i,
				Type:        q.Type,
				Question:    strings.TrimSpace(q.Question),
				Description: q.Description,
				Required:    q.Required == nil || *q.Required,
				MinValue:    q.MinValue,
				MaxValue:    q.MaxValue,
			}
			if len(q.Options) > 0 {
				options, err := json.Marshal(q.Options)
				if err != nil {
					return err
				}
				question.Options = datatypes.JSON(options)
			}
			questions = append(questions, question)
		}
		if err := tx.WithContext(ctx).Create(&questions).Error; err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
	}

	if len(teacherIDs) > 0 {
		links := make([]models.SurveyTeacher, 0, len(teacherIDs))
		for i, teacherID := range teacherIDs {
			links = append(links, models.SurveyTeacher{SurveyID: surveyID, TeacherID: teacherID, Order: i})
		}
		if err := tx.WithContext(ctx).Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link teachers: %w", err)
		}
	}
	return nil
}

// resolveTeachers merges teacher ids and names into one ordered, duplicate free id list.
// Every id must exist and every name must match a teacher.
func (s *Service) resolveTeachers(ctx context.Context, ids []uint, names []string) ([]uint, error) {
	resolved := make([]uint, 0, len(ids)+len(names))
	seen := make(map[uint]bool)
	add := func(id uint) {
		if !seen[id] {
			seen[id] = true
			resolved = append(resolved, id)
		}
	}

	if len(ids) > 0 {
		teachers, err := gorm.G[models.Teacher](s.db).Where("id IN ?", ids).Find(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to look up teachers: %w", err)
		}
		known := make(map[uint]bool, len(teachers))
		for _, teacher := range teachers {
			known[teacher.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, &InputError{Field: "teacherIds", Message: fmt.Sprintf("teacher %d not found", id)}
			}
			add(id)
		}
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		teacher, err := gorm.G[models.Teacher](s.db).Where("name = ?", name).Order("id ASC").First(ctx)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &InputError{Field: "teacherNames", Message: fmt.Sprintf("teacher %q not found", name)}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up teacher %q: %w", name, err)
		}
		add(teacher.ID)
	}
	return resolved, nil
}

// SurveyByID returns the admin view of a survey regardless of its status
func (s *Service) SurveyByID(ctx context.Context, id uint) (*SurveyRecord, error) {
	survey, err := gorm.G[models.Survey](s.db).Where("id = ?", id).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	return s.toRecord(ctx, &survey)
}

// ListSurveys returns every survey, newest first
func (s *Service) ListSurveys(ctx context.Context) ([]SurveyRecord, error) {
	surveys, err := gorm.G[models.Survey](s.db).Order("created_at DESC").Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}
	records := make([]SurveyRecord, 0, len(surveys))
	for i := range surveys {
		record, err := s.toRecord(ctx, &surveys[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *Service) toRecord(ctx context.Context, survey *models.Survey) (*SurveyRecord, error) {
	definition, err := s.buildDefinition(ctx, survey)
	if err != nil {
		return nil, err
	}
	sessions, err := gorm.G[models.Session](s.db).Where("survey_id = ?", survey.ID).Count(ctx, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	responses, err := gorm.G[models.Response](s.db).Where("survey_id = ?", survey.ID).Count(ctx, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}
	return &SurveyRecord{
		SurveyDefinition: *definition,
		CreatedAt:        survey.CreatedAt,
		Sessions:         sessions,
		Responses:        responses,
	}, nil
}

// SetSurveyStatus changes a survey's status and drops its cached definition
func (s *Service) SetSurveyStatus(ctx context.Context, id uint, status models.SurveyStatus) (*SurveyRecord, error) {
	if !status.Valid() {
		return nil, &InputError{Field: "status", Message: fmt.Sprintf("unknown survey status %q", status)}
	}
	survey, err := gorm.G[models.Survey](s.db).Where("id = ?", id).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}

	if _, err := gorm.G[models.Survey](s.db).Where("id = ?", id).Update(ctx, "status", status); err != nil {
		return nil, fmt.Errorf("failed to update survey status: %w", err)
	}
	s.InvalidateDefinition(ctx, survey.UniqueLink)

	survey.Status = status
	return s.toRecord(ctx, &survey)
}

// InvalidateDefinition drops the cached public definition of a survey, if caching is enabled
func (s *Service) InvalidateDefinition(ctx context.Context, uniqueLink string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, uniqueLink)
	}
}
