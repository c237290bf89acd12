package db

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SurveyType string

const (
	SurveyTypeTeacherEvaluation SurveyType = "teacher_evaluation"
	SurveyTypeInstitutional     SurveyType = "institutional"
	SurveyTypeCustom            SurveyType = "custom"
)

func (t SurveyType) Valid() bool {
	switch t {
	case SurveyTypeTeacherEvaluation, SurveyTypeInstitutional, SurveyTypeCustom:
		return true
	}
	return false
}

type SurveyStatus string

const (
	SurveyDraft  SurveyStatus = "draft"
	SurveyActive SurveyStatus = "active"
	SurveyClosed SurveyStatus = "closed"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyDraft, SurveyActive, SurveyClosed:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionTextarea       QuestionType = "textarea"
	QuestionRating         QuestionType = "rating"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionTextarea, QuestionRating, QuestionMultipleChoice, QuestionCheckbox:
		return true
	}
	return false
}

// IsChoice reports whether answers to this type pick from Question.Options
func (t QuestionType) IsChoice() bool {
	return t == QuestionMultipleChoice || t == QuestionCheckbox
}

// Status of students and teachers
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

type Student struct {
	gorm.Model
	Code        string `gorm:"uniqueIndex;size:8;not null"`
	Name        string
	Email       *string
	Diplomatura *string
	Status      Status `gorm:"size:16;not null;default:'active'"`
}

type Teacher struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Email       *string
	Subject     *string
	Diplomatura *string
	Photo       *string
	Status      Status `gorm:"size:16;not null;default:'active'"`
}

type Survey struct {
	gorm.Model
	Title          string `gorm:"not null"`
	Description    *string
	Type           SurveyType   `gorm:"size:32;not null"`
	Status         SurveyStatus `gorm:"size:16;not null;default:'draft'"`
	UniqueLink     string       `gorm:"uniqueIndex;size:64;not null"`
	StartsAt       *time.Time
	EndsAt         *time.Time
	RequiresCode   bool
	AllowAnonymous bool
	Questions      []Question      `gorm:"foreignKey:SurveyID;references:ID"`
	SurveyTeachers []SurveyTeacher `gorm:"foreignKey:SurveyID;references:ID"`
}

type Question struct {
	gorm.Model
	SurveyID    uint         `gorm:"not null;uniqueIndex:idx_question_survey_order"`
	Order       int          `gorm:"column:position;not null;uniqueIndex:idx_question_survey_order"`
	Type        QuestionType `gorm:"size:32;not null"`
	Question    string       `gorm:"not null"`
	Description *string
	Required    bool
	Options     datatypes.JSON
	MinValue    *float64
	MaxValue    *float64
}

// OptionList decodes Options, returning nil when none are stored
func (q Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}
	return options
}

type SurveyTeacher struct {
	ID        uint    `gorm:"primarykey"`
	SurveyID  uint    `gorm:"not null;uniqueIndex:idx_survey_teacher"`
	TeacherID uint    `gorm:"not null;uniqueIndex:idx_survey_teacher"`
	Teacher   Teacher `gorm:"foreignKey:TeacherID;references:ID"`
	Order     int     `gorm:"column:position;not null"`
}

type Session struct {
	gorm.Model
	SurveyID       uint     `gorm:"not null;index"`
	Survey         Survey   `gorm:"foreignKey:SurveyID;references:ID"`
	StudentID      *uint    `gorm:"index"`
	Student        *Student `gorm:"foreignKey:StudentID;references:ID"`
	SessionToken   string   `gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt      time.Time
	Completed      bool
	EvaluatedCount int
	Responses      []Response `gorm:"foreignKey:SessionID;references:ID"`
}

// Expired reports whether the session can no longer be used at the given time
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type Response struct {
	gorm.Model
	SurveyID    uint  `gorm:"not null;index"`
	SessionID   uint  `gorm:"not null;uniqueIndex:idx_response_session_teacher"`
	StudentID   *uint `gorm:"index"`
	TeacherID   *uint `gorm:"uniqueIndex:idx_response_session_teacher"`
	Completed   bool
	SubmittedAt time.Time
	Metadata    datatypes.JSONMap
	Answers     []Answer `gorm:"foreignKey:ResponseID;references:ID"`
}

type Answer struct {
	gorm.Model
	ResponseID uint           `gorm:"not null;uniqueIndex:idx_answer_response_question"`
	QuestionID uint           `gorm:"not null;uniqueIndex:idx_answer_response_question"`
	Question   Question       `gorm:"foreignKey:QuestionID;references:ID"`
	Value      datatypes.JSON `gorm:"type:text"` // text keeps sqlite from coercing numeric JSON into integers
}

type Admin struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

// AllModels lists every model in migration order
func AllModels() []any {
	return []any{
		&Student{},
		&Teacher{},
		&Survey{},
		&Question{},
		&SurveyTeacher{},
		&Session{},
		&Response{},
		&Answer{},
		&Admin{},
	}
}
