package evaluation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

// Completion is the outcome of evaluating a session's progress
type Completion struct {
	CompletedCount  int64
	TotalSubTargets int64
	AllCompleted    bool
}

// EvaluateCompletion counts the session's completed responses against the survey's
// teachers and marks the session completed once every teacher has been evaluated.
// Calling it again without new responses yields the same result.
func (s *Service) EvaluateCompletion(ctx context.Context, sessionID uint) (Completion, error) {
	session, err := gorm.G[models.Session](s.db).Where("id = ?", sessionID).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Completion{}, ErrSessionNotFound
	}
	if err != nil {
		return Completion{}, fmt.Errorf("failed to load session: %w", err)
	}
	return evaluateCompletion(ctx, s.db, &session)
}

func evaluateCompletion(ctx context.Context, tx *gorm.DB, session *models.Session) (Completion, error) {
	completedCount, err := gorm.G[models.Response](tx).
		Where("session_id = ? AND completed = ?", session.ID, true).
		Count(ctx, "id")
	if err != nil {
		return Completion{}, fmt.Errorf("failed to count responses: %w", err)
	}
	total, err := gorm.G[models.SurveyTeacher](tx).
		Where("survey_id = ?", session.SurveyID).
		Count(ctx, "id")
	if err != nil {
		return Completion{}, fmt.Errorf("failed to count survey teachers: %w", err)
	}

	// a survey without teachers still needs one response
	completion := Completion{
		CompletedCount:  completedCount,
		TotalSubTargets: total,
		AllCompleted:    completedCount > 0 && completedCount >= total,
	}
	if completion.AllCompleted {
		// completed only ever moves from false to true
		if _, err := gorm.G[models.Session](tx).
			Where("id = ? AND completed = ?", session.ID, false).
			Update(ctx, "completed", true); err != nil {
			return Completion{}, fmt.Errorf("failed to mark session completed: %w", err)
		}
		session.Completed = true
	}
	return completion, nil
}
