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
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

// Submission is one respondent's answers for one teacher of a survey
type Submission struct {
	UniqueLink   string
	SessionToken string
	TeacherID    *uint
	Answers      map[string]json.RawMessage // question id -> raw JSON value
	UserAgent    string
	RemoteAddr   string
}

type SubmissionResult struct {
	ResponseID     uint
	Completed      bool
	EvaluatedCount int64
	TotalTeachers  int64
	AllCompleted   bool
}

// RecordResponse validates a submission and stores it together with its answers.
// Nothing is written unless every check passes.
func (s *Service) RecordResponse(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	token := strings.TrimSpace(sub.SessionToken)
	if token == "" {
		return nil, ErrTokenRequired
	}
	survey, err := s.loadSurvey(ctx, sub.UniqueLink)
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
	now := s.now()
	if session.Expired(now) {
		return nil, ErrSessionExpired
	}
	if session.Completed {
		return nil, ErrSessionCompleted
	}

	links, err := loadSurveyTeachers(ctx, s.db, survey.ID)
	if err != nil {
		return nil, err
	}
	if err := checkTeacher(links, sub.TeacherID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, session.ID, sub.TeacherID); err != nil {
		return nil, err
	}

	questions, err := loadQuestions(ctx, s.db, survey.ID)
	if err != nil {
		return nil, err
	}
	values, err := validateAnswers(questions, sub.Answers)
	if err != nil {
		return nil, err
	}

	response := models.Response{
		SurveyID:    survey.ID,
		SessionID:   session.ID,
		StudentID:   session.StudentID,
		TeacherID:   sub.TeacherID,
		Completed:   true,
		SubmittedAt: now,
		Metadata: datatypes.JSONMap{
			"userAgent":  sub.UserAgent,
			"remoteAddr": sub.RemoteAddr,
			"timestamp":  now.Format(time.RFC3339),
		},
	}

	var completion Completion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := gorm.G[models.Response](tx).Create(ctx, &response); err != nil {
			return err
		}

		if len(values) > 0 {
			answers := make([]models.Answer, 0, len(values))
			for _, value := range values {
				answers = append(answers, models.Answer{
					ResponseID: response.ID,
					QuestionID: value.QuestionID,
					Value:      value.JSON(),
				})
			}
			if err := tx.Create(&answers).Error; err != nil {
				return fmt.Errorf("failed to store answers: %w", err)
			}
		}

		// a concurrent submission may have completed the session since it was read
		result := tx.Model(&models.Session{}).
			Where("id = ? AND completed = ?", session.ID, false).
			Update("evaluated_count", gorm.Expr("evaluated_count + ?", 1))
		if result.Error != nil {
			return fmt.Errorf("failed to update session progress: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrSessionCompleted
		}

		var evalErr error
		completion, evalErr = evaluateCompletion(ctx, tx, session)
		return evalErr
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrResponseExists
	}
	if err != nil {
		if _, ok := AsError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	logger.WithFields(map[string]any{
		"survey":    survey.ID,
		"session":   session.ID,
		"response":  response.ID,
		"evaluated": completion.CompletedCount,
		"total":     completion.TotalSubTargets,
	}).Debug("response recorded")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastProgress(ProgressEvent{
			SurveyID:       survey.ID,
			SessionID:      session.ID,
			ResponseID:     response.ID,
			TeacherID:      sub.TeacherID,
			EvaluatedCount: completion.CompletedCount,
			TotalTeachers:  completion.TotalSubTargets,
			AllCompleted:   completion.AllCompleted,
			SubmittedAt:    now,
		})
	}

	return &SubmissionResult{
		ResponseID:     response.ID,
		Completed:      response.Completed,
		EvaluatedCount: completion.CompletedCount,
		TotalTeachers:  completion.TotalSubTargets,
		AllCompleted:   completion.AllCompleted,
	}, nil
}

// checkTeacher requires a teacher of the survey when it has any, and none otherwise
func checkTeacher(links []models.SurveyTeacher, teacherID *uint) error {
	if len(links) == 0 {
		if teacherID != nil {
			return ErrTeacherNotInSurvey
		}
		return nil
	}
	if teacherID == nil {
		return ErrTeacherRequired
	}
	for _, link := range links {
		if link.TeacherID == *teacherID {
			return nil
		}
	}
	return ErrTeacherNotInSurvey
}

func (s *Service) checkDuplicate(ctx context.Context, sessionID uint, teacherID *uint) error {
	query := gorm.G[models.Response](s.db).Where("session_id = ?", sessionID)
	if teacherID != nil {
		query = query.Where("teacher_id = ?", *teacherID)
	} else {
		query = query.Where("teacher_id IS NULL")
	}
	count, err := query.Count(ctx, "id")
	if err != nil {
		return fmt.Errorf("failed to check existing responses: %w", err)
	}
	if count > 0 {
		return ErrResponseExists
	}
	return nil
}
