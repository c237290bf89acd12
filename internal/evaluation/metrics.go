package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

type RatingAverage struct {
	QuestionID uint    `json:"questionId"`
	Question   string  `json:"question"`
	Average    float64 `json:"average"`
	Count      int64   `json:"count"`
}

type TeacherMetrics struct {
	TeacherID *uint           `json:"teacherId"`
	Name      string          `json:"name"`
	Responses int64           `json:"responses"`
	Ratings   []RatingAverage `json:"ratings"`
}

type SurveyMetrics struct {
	SurveyID          uint             `json:"surveyId"`
	SessionsTotal     int64            `json:"sessionsTotal"`
	SessionsCompleted int64            `json:"sessionsCompleted"`
	CompletionRate    float64          `json:"completionRate"` // completed sessions / sessions, 0 without sessions
	ResponsesTotal    int64            `json:"responsesTotal"`
	Teachers          []TeacherMetrics `json:"teachers"`
}

type ratingSum struct {
	sum   float64
	count int64
}

// SurveyMetrics aggregates session completion and rating averages per teacher
func (s *Service) SurveyMetrics(ctx context.Context, surveyID uint) (*SurveyMetrics, error) {
	if err := s.surveyExists(ctx, surveyID); err != nil {
		return nil, err
	}

	sessionsTotal, err := gorm.G[models.Session](s.db).Where("survey_id = ?", surveyID).Count(ctx, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	sessionsCompleted, err := gorm.G[models.Session](s.db).
		Where("survey_id = ? AND completed = ?", surveyID, true).
		Count(ctx, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to count completed sessions: %w", err)
	}

	questions, err := loadQuestions(ctx, s.db, surveyID)
	if err != nil {
		return nil, err
	}
	links, err := loadSurveyTeachers(ctx, s.db, surveyID)
	if err != nil {
		return nil, err
	}
	var responses []models.Response
	if err := s.db.WithContext(ctx).
		Preload("Answers").
		Where("survey_id = ?", surveyID).
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	ratingQuestions := make(map[uint]bool)
	for _, question := range questions {
		if question.Type == models.QuestionRating {
			ratingQuestions[question.ID] = true
		}
	}

	// teacher id (0 for responses without one) -> question id -> running sum
	sums := make(map[uint]map[uint]*ratingSum)
	counts := make(map[uint]int64)
	for _, response := range responses {
		var teacherKey uint
		if response.TeacherID != nil {
			teacherKey = *response.TeacherID
		}
		counts[teacherKey]++
		for _, answer := range response.Answers {
			if !ratingQuestions[answer.QuestionID] {
				continue
			}
			var value float64
			if err := json.Unmarshal(answer.Value, &value); err != nil {
				continue
			}
			if sums[teacherKey] == nil {
				sums[teacherKey] = make(map[uint]*ratingSum)
			}
			if sums[teacherKey][answer.QuestionID] == nil {
				sums[teacherKey][answer.QuestionID] = &ratingSum{}
			}
			sums[teacherKey][answer.QuestionID].sum += value
			sums[teacherKey][answer.QuestionID].count++
		}
	}

	metrics := &SurveyMetrics{
		SurveyID:          surveyID,
		SessionsTotal:     sessionsTotal,
		SessionsCompleted: sessionsCompleted,
		ResponsesTotal:    int64(len(responses)),
		Teachers:          []TeacherMetrics{},
	}
	if sessionsTotal > 0 {
		metrics.CompletionRate = float64(sessionsCompleted) / float64(sessionsTotal)
	}

	averages := func(teacherKey uint) []RatingAverage {
		ratings := []RatingAverage{}
		for _, question := range questions {
			sum := sums[teacherKey][question.ID]
			if !ratingQuestions[question.ID] || sum == nil || sum.count == 0 {
				continue
			}
			ratings = append(ratings, RatingAverage{
				QuestionID: question.ID,
				Question:   question.Question,
				Average:    sum.sum / float64(sum.count),
				Count:      sum.count,
			})
		}
		return ratings
	}

	for _, link := range links {
		teacherID := link.TeacherID
		metrics.Teachers = append(metrics.Teachers, TeacherMetrics{
			TeacherID: &teacherID,
			Name:      link.Teacher.Name,
			Responses: counts[teacherID],
			Ratings:   averages(teacherID),
		})
	}
	if counts[0] > 0 {
		metrics.Teachers = append(metrics.Teachers, TeacherMetrics{
			Name:      "General",
			Responses: counts[0],
			Ratings:   averages(0),
		})
	}
	return metrics, nil
}

// ResponseRecord is an admin view of one stored response
type ResponseRecord struct {
	ID          uint           `json:"id"`
	SessionID   uint           `json:"sessionId"`
	StudentCode *string        `json:"studentCode"`
	StudentName *string        `json:"studentName"`
	TeacherID   *uint          `json:"teacherId"`
	TeacherName *string        `json:"teacherName"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Metadata    map[string]any `json:"metadata"`
	Answers     []AnswerRecord `json:"answers"`
}

type AnswerRecord struct {
	QuestionID uint            `json:"questionId"`
	Question   string          `json:"question"`
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value"`
}

// ListResponses returns every response of a survey with its answers, newest first
func (s *Service) ListResponses(ctx context.Context, surveyID uint) ([]ResponseRecord, error) {
	if err := s.surveyExists(ctx, surveyID); err != nil {
		return nil, err
	}

	var responses []models.Response
	if err := s.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("question_id ASC") }).
		Preload("Answers.Question").
		Where("survey_id = ?", surveyID).
		Order("submitted_at DESC").
		Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	students, err := s.studentsByID(ctx, responses)
	if err != nil {
		return nil, err
	}
	links, err := loadSurveyTeachers(ctx, s.db, surveyID)
	if err != nil {
		return nil, err
	}
	teacherNames := make(map[uint]string, len(links))
	for _, link := range links {
		teacherNames[link.TeacherID] = link.Teacher.Name
	}

	records := make([]ResponseRecord, 0, len(responses))
	for _, response := range responses {
		record := ResponseRecord{
			ID:          response.ID,
			SessionID:   response.SessionID,
			TeacherID:   response.TeacherID,
			SubmittedAt: response.SubmittedAt,
			Metadata:    response.Metadata,
			Answers:     make([]AnswerRecord, 0, len(response.Answers)),
		}
		if response.StudentID != nil {
			if student, ok := students[*response.StudentID]; ok {
				record.StudentCode = &student.Code
				record.StudentName = &student.Name
			}
		}
		if response.TeacherID != nil {
			if name, ok := teacherNames[*response.TeacherID]; ok {
				record.TeacherName = &name
			}
		}
		for _, answer := range response.Answers {
			record.Answers = append(record.Answers, AnswerRecord{
				QuestionID: answer.QuestionID,
				Question:   answer.Question.Question,
				Type:       string(answer.Question.Type),
				Value:      json.RawMessage(answer.Value),
			})
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Service) studentsByID(ctx context.Context, responses []models.Response) (map[uint]models.Student, error) {
	var ids []uint
	for _, response := range responses {
		if response.StudentID != nil {
			ids = append(ids, *response.StudentID)
		}
	}
	students := make(map[uint]models.Student)
	if len(ids) == 0 {
		return students, nil
	}
	found, err := gorm.G[models.Student](s.db).Where("id IN ?", ids).Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	for _, student := range found {
		students[student.ID] = student
	}
	return students, nil
}

func (s *Service) surveyExists(ctx context.Context, surveyID uint) error {
	_, err := gorm.G[models.Survey](s.db).Where("id = ?", surveyID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSurveyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}
	return nil
}
