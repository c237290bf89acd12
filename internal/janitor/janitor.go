package janitor

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/CLDWare/evaluations-backend/config"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

type Janitor struct {
	cfg              *config.Config
	database         *gorm.DB
	announceNoAction bool
	cancel           context.CancelFunc
	now              func() time.Time
	invalidate       func(ctx context.Context, uniqueLink string)
}

func NewJanitor(cfg *config.Config, db *gorm.DB, announceNoAction bool) *Janitor {
	return &Janitor{
		cfg:              cfg,
		database:         db,
		announceNoAction: announceNoAction,
		now:              time.Now,
	}
}

// SetInvalidator registers a callback that drops cached survey definitions when the janitor closes a survey
func (jan *Janitor) SetInvalidator(invalidate func(ctx context.Context, uniqueLink string)) {
	jan.invalidate = invalidate
}

func (jan *Janitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	jan.cancel = cancel

	go func() {
		shortTicker := time.NewTicker(jan.cfg.Janitor.ShortCleanInterval)
		defer shortTicker.Stop()
		fullTicker := time.NewTicker(jan.cfg.Janitor.FullCleanInterval)
		defer fullTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-shortTicker.C:
				jan.RunShort()
			case <-fullTicker.C:
				jan.RunFull()
			}
		}
	}()
}

func (jan *Janitor) Stop() {
	if jan.cancel != nil {
		jan.cancel()
		jan.cancel = nil
	}
}

func (jan *Janitor) RunShort() {
	logger.Info("Janitor: Running short cleaning sequence.")
	jan.CloseEndedSurveys()
	jan.ReportExpiredSessions()
}

func (jan *Janitor) RunFull() {
	logger.Info("Janitor: Running full cleaning sequence.")
	jan.RunShort()

	jan.DeepCleanDatabase(nil)
}

// DeepCleanDatabase forces gorm to delete all "deleted" entries
func (jan *Janitor) DeepCleanDatabase(deepcleanModels *[]any) {
	if deepcleanModels == nil {
		deepcleanModels = &[]any{
			models.Answer{},
			models.Response{},
			models.Session{},
			models.Question{},
			models.Survey{},
			models.Teacher{},
			models.Student{},
			models.Admin{},
		}
	}
	for _, deepcleanModel := range *deepcleanModels {
		result := jan.database.Unscoped().Where("deleted_at IS NOT NULL").Delete(deepcleanModel)
		if result.Error != nil {
			logger.Err(fmt.Sprintf("Janitor: Error while deepcleaning model %T: %s", deepcleanModel, result.Error.Error()))
		} else {
			if jan.announceNoAction || result.RowsAffected != 0 {
				logger.Info(fmt.Sprintf("Janitor: Deleted %d rows from model %T", result.RowsAffected, deepcleanModel))
			}
		}
	}
}

// CloseEndedSurveys moves active surveys whose end date has passed to closed
func (jan *Janitor) CloseEndedSurveys() int {
	ctx := context.Background()
	now := jan.now()

	surveys, err := gorm.G[models.Survey](jan.database).
		Where("status = ? AND ends_at IS NOT NULL", models.SurveyActive).
		Find(ctx)
	if err != nil {
		logger.Err(fmt.Sprintf("Janitor: Error while loading active surveys: %s", err.Error()))
		return 0
	}

	closed := 0
	for _, survey := range surveys {
		if !now.After(*survey.EndsAt) {
			continue
		}
		rows, err := gorm.G[models.Survey](jan.database).
			Where("id = ? AND status = ?", survey.ID, models.SurveyActive).
			Update(ctx, "status", models.SurveyClosed)
		if err != nil {
			logger.Err(fmt.Sprintf("Janitor: Error while closing survey %d: %s", survey.ID, err.Error()))
			continue
		}
		if rows == 0 {
			continue
		}
		if jan.invalidate != nil {
			jan.invalidate(ctx, survey.UniqueLink)
		}
		closed++
	}

	if jan.announceNoAction || closed != 0 {
		logger.Info(fmt.Sprintf("Janitor: closed %d ended surveys", closed))
	}
	return closed
}

// ReportExpiredSessions logs how many unfinished sessions have expired. Sessions are kept for reporting.
func (jan *Janitor) ReportExpiredSessions() int {
	ctx := context.Background()
	now := jan.now()

	var sessions []models.Session
	err := jan.database.WithContext(ctx).
		Select("id", "expires_at").
		Where("completed = ?", false).
		Find(&sessions).Error
	if err != nil {
		logger.Err(fmt.Sprintf("Janitor: Error while loading open sessions: %s", err.Error()))
		return 0
	}

	expired := 0
	for _, session := range sessions {
		if session.Expired(now) {
			expired++
		}
	}

	if jan.announceNoAction || expired != 0 {
		logger.Info(fmt.Sprintf("Janitor: %d of %d unfinished sessions have expired", expired, len(sessions)))
	}
	return expired
}
