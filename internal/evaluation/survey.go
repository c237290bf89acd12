package evaluation

import (
	"context"
	"time"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

type QuestionDefinition struct {
	ID          uint                `json:"id"`
	Order       int                 `json:"order"`
	Type        models.QuestionType `json:"type"`
	Question    string              `json:"question"`
	Description *string             `json:"description"`
	Required    bool                `json:"required"`
	Options     []string            `json:"options,omitempty"`
	MinValue    *float64            `json:"minValue,omitempty"`
	MaxValue    *float64            `json:"maxValue,omitempty"`
}

// SurveyDefinition is the public view of a survey a respondent fills in
type SurveyDefinition struct {
	ID             uint                 `json:"id"`
	Title          string               `json:"title"`
	Description    *string              `json:"description"`
	Type           models.SurveyType    `json:"type"`
	Status         models.SurveyStatus  `json:"status"`
	UniqueLink     string               `json:"uniqueLink"`
	StartsAt       *time.Time           `json:"startsAt"`
	EndsAt         *time.Time           `json:"endsAt"`
	RequiresCode   bool                 `json:"requiresCode"`
	AllowAnonymous bool                 `json:"allowAnonymous"`
	Questions      []QuestionDefinition `json:"questions"`
	Teachers       []TeacherSummary     `json:"teachers"`
}

// PublicSurvey returns the definition behind uniqueLink if it is active and open right now
func (s *Service) PublicSurvey(ctx context.Context, uniqueLink string) (*SurveyDefinition, error) {
	definition, err := s.definition(ctx, uniqueLink)
	if err != nil {
		return nil, err
	}
	if definition.Status != models.SurveyActive {
		return nil, ErrSurveyNotActive
	}
	window := models.Survey{StartsAt: definition.StartsAt, EndsAt: definition.EndsAt}
	if err := checkWindow(&window, s.now()); err != nil {
		return nil, err
	}
	return definition, nil
}

// definition loads a survey definition, going through the cache when one is set
func (s *Service) definition(ctx context.Context, uniqueLink string) (*SurveyDefinition, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, uniqueLink); ok {
			return cached, nil
		}
	}

	survey, err := s.loadSurvey(ctx, uniqueLink)
	if err != nil {
		return nil, err
	}
	definition, err := s.buildDefinition(ctx, survey)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, uniqueLink, definition)
	}
	return definition, nil
}

func (s *Service) buildDefinition(ctx context.Context, survey *models.Survey) (*SurveyDefinition, error) {
	questions, err := loadQuestions(ctx, s.db, survey.ID)
	if err != nil {
		return nil, err
	}
	links, err := loadSurveyTeachers(ctx, s.db, survey.ID)
	if err != nil {
		return nil, err
	}

	definition := &SurveyDefinition{
		ID:             survey.ID,
		Title:          survey.Title,
		Description:    survey.Description,
		Type:           survey.Type,
		Status:         survey.Status,
		UniqueLink:     survey.UniqueLink,
		StartsAt:       survey.StartsAt,
		EndsAt:         survey.EndsAt,
		RequiresCode:   survey.RequiresCode,
		AllowAnonymous: survey.AllowAnonymous,
		Questions:      make([]QuestionDefinition, 0, len(questions)),
		Teachers:       toTeacherSummaries(links, nil),
	}
	for _, question := range questions {
		definition.Questions = append(definition.Questions, QuestionDefinition{
			ID:          question.ID,
			Order:       question.Order,
			Type:        question.Type,
			Question:    question.Question,
			Description: question.Description,
			Required:    question.Required,
			Options:     question.OptionList(),
			MinValue:    question.MinValue,
			MaxValue:    question.MaxValue,
		})
	}
	return definition, nil
}
