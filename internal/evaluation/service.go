// Package evaluation implements the survey session and response lifecycle:
// issuing respondent sessions, recording one response per teacher and
// deciding when a session is complete.
package evaluation

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/CLDWare/evaluations-backend/config"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

// Broadcaster receives a progress event after every committed response
type Broadcaster interface {
	BroadcastProgress(event ProgressEvent)
}

// DefinitionCache stores public survey definitions by unique link
type DefinitionCache interface {
	Get(ctx context.Context, uniqueLink string) (*SurveyDefinition, bool)
	Set(ctx context.Context, uniqueLink string, definition *SurveyDefinition)
	Invalidate(ctx context.Context, uniqueLink string)
}

// ProgressEvent describes a session's progress right after a response was recorded
type ProgressEvent struct {
	SurveyID       uint      `json:"surveyId"`
	SessionID      uint      `json:"sessionId"`
	ResponseID     uint      `json:"responseId"`
	TeacherID      *uint     `json:"teacherId"`
	EvaluatedCount int64     `json:"evaluatedCount"`
	TotalTeachers  int64     `json:"totalTeachers"`
	AllCompleted   bool      `json:"allCompleted"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

type Service struct {
	db              *gorm.DB
	sessionDuration time.Duration
	linkLength      int
	now             func() time.Time
	broadcaster     Broadcaster
	cache           DefinitionCache
}

func NewService(cfg *config.Config, db *gorm.DB) *Service {
	return &Service{
		db:              db,
		sessionDuration: cfg.Survey.SessionDuration,
		linkLength:      cfg.Survey.LinkLength,
		now:             time.Now,
	}
}

func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *Service) SetCache(c DefinitionCache) {
	s.cache = c
}

// SetClock replaces the time source used for expiry and survey windows
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) loadSurvey(ctx context.Context, uniqueLink string) (*models.Survey, error) {
	survey, err := gorm.G[models.Survey](s.db).Where("unique_link = ?", uniqueLink).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load survey: %w", err)
	}
	return &survey, nil
}

func (s *Service) loadSession(ctx context.Context, token string) (*models.Session, error) {
	session, err := gorm.G[models.Session](s.db).Where("session_token = ?", token).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// loadSurveyTeachers returns the survey's teacher links in display order
func loadSurveyTeachers(ctx context.Context, db *gorm.DB, surveyID uint) ([]models.SurveyTeacher, error) {
	links, err := gorm.G[models.SurveyTeacher](db).
		Preload("Teacher", nil).
		Where("survey_id = ?", surveyID).
		Order("position ASC").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load survey teachers: %w", err)
	}
	return links, nil
}

func loadQuestions(ctx context.Context, db *gorm.DB, surveyID uint) ([]models.Question, error) {
	questions, err := gorm.G[models.Question](db).
		Where("survey_id = ?", surveyID).
		Order("position ASC").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return questions, nil
}

// checkWindow reports whether now lies inside the survey's optional start and end
func checkWindow(survey *models.Survey, now time.Time) error {
	if survey.StartsAt != nil && now.Before(*survey.StartsAt) {
		return ErrSurveyNotStarted
	}
	if survey.EndsAt != nil && now.After(*survey.EndsAt) {
		return ErrSurveyEnded
	}
	return nil
}

func generateSecureToken(n int) (string, error) {
	// n is the number of bytes, not characters
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

const linkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateLink returns a random url-safe link of the given length
func GenerateLink(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(linkAlphabet)))
	link := make([]byte, length)
	for i := range link {
		n, err := crand.Int(crand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		link[i] = linkAlphabet[n.Int64()]
	}
	return string(link), nil
}
