package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/CLDWare/evaluations-backend/config"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

var baseTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := models.Migrate(database); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return database
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *testClock) {
	t.Helper()
	database := newTestDB(t)
	cfg := &config.Config{
		Survey: config.SurveyConfig{SessionDuration: 24 * time.Hour, LinkLength: 10},
	}
	service := NewService(cfg, database)
	clock := &testClock{now: baseTime}
	service.SetClock(clock.Now)
	return service, database, clock
}

type surveyOptions struct {
	Link         string
	Status       models.SurveyStatus
	RequiresCode bool
	Teachers     int
	Questions    []models.Question
	StartsAt     *time.Time
	EndsAt       *time.Time
}

var fixtureSeq int

type fixture struct {
	Survey    models.Survey
	Questions []models.Question
	Teachers  []models.Teacher
}

func (f fixture) teacherID(i int) *uint {
	id := f.Teachers[i].ID
	return &id
}

func (f fixture) questionKey(i int) string {
	return strconv.FormatUint(uint64(f.Questions[i].ID), 10)
}

func createFixture(t *testing.T, database *gorm.DB, opts surveyOptions) fixture {
	t.Helper()
	ctx := context.Background()
	if opts.Status == "" {
		opts.Status = models.SurveyActive
	}
	if opts.Link == "" {
		fixtureSeq++
		opts.Link = fmt.Sprintf("survey%04d", fixtureSeq)
	}

	survey := models.Survey{
		Title:        "Evaluación docente",
		Type:         models.SurveyTypeTeacherEvaluation,
		Status:       opts.Status,
		UniqueLink:   opts.Link,
		RequiresCode: opts.RequiresCode,
		StartsAt:     opts.StartsAt,
		EndsAt:       opts.EndsAt,
	}
	if err := gorm.G[models.Survey](database).Create(ctx, &survey); err != nil {
		t.Fatalf("failed to create survey: %v", err)
	}

	f := fixture{Survey: survey}
	for i, question := range opts.Questions {
		question.SurveyID = survey.ID
		question.Order = i
		if err := gorm.G[models.Question](database).Create(ctx, &question); err != nil {
			t.Fatalf("failed to create question: %v", err)
		}
		f.Questions = append(f.Questions, question)
	}
	for i := 0; i < opts.Teachers; i++ {
		teacher := models.Teacher{Name: fmt.Sprintf("Docente %d", i+1), Status: models.StatusActive}
		if err := gorm.G[models.Teacher](database).Create(ctx, &teacher); err != nil {
			t.Fatalf("failed to create teacher: %v", err)
		}
		link := models.SurveyTeacher{SurveyID: survey.ID, TeacherID: teacher.ID, Order: i}
		if err := gorm.G[models.SurveyTeacher](database).Create(ctx, &link); err != nil {
			t.Fatalf("failed to link teacher: %v", err)
		}
		f.Teachers = append(f.Teachers, teacher)
	}
	return f
}

func createStudent(t *testing.T, database *gorm.DB, code string, status models.Status) models.Student {
	t.Helper()
	student := models.Student{Code: code, Name: "Estudiante " + code, Status: status}
	if err := gorm.G[models.Student](database).Create(context.Background(), &student); err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	return student
}

func ratingQuestion(required bool, bounds ...float64) models.Question {
	q := models.Question{Type: models.QuestionRating, Question: "Puntaje", Required: required}
	if len(bounds) == 2 {
		q.MinValue, q.MaxValue = &bounds[0], &bounds[1]
	}
	return q
}

func textQuestion(required bool) models.Question {
	return models.Question{Type: models.QuestionText, Question: "Comentario", Required: required}
}

func choiceQuestion(kind models.QuestionType, required bool, options ...string) models.Question {
	raw, _ := json.Marshal(options)
	return models.Question{Type: kind, Question: "Opciones", Required: required, Options: datatypes.JSON(raw)}
}

func raw(v string) json.RawMessage {
	return json.RawMessage(v)
}

func countRows[T any](t *testing.T, database *gorm.DB) int64 {
	t.Helper()
	count, err := gorm.G[T](database).Count(context.Background(), "id")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return count
}

func assertDomainError(t *testing.T, err error, want *Error) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want.Code)
	}
	if !errors.Is(err, want) {
		t.Fatalf("expected error %q, got %v", want.Code, err)
	}
	domainErr, _ := AsError(err)
	return domainErr
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (b *recordingBroadcaster) BroadcastProgress(event ProgressEvent) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

type memoryCache struct {
	mu          sync.Mutex
	items       map[string]*SurveyDefinition
	gets        int
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string]*SurveyDefinition)}
}

func (c *memoryCache) Get(_ context.Context, link string) (*SurveyDefinition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	definition, ok := c.items[link]
	return definition, ok
}

func (c *memoryCache) Set(_ context.Context, link string, definition *SurveyDefinition) {
	c.mu.Lock()
	c.items[link] = definition
	c.mu.Unlock()
}

func (c *memoryCache) Invalidate(_ context.Context, link string) {
	c.mu.Lock()
	delete(c.items, link)
	c.invalidated = append(c.invalidated, link)
	c.mu.Unlock()
}
