package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/CLDWare/evaluations-backend/config"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "data", "test.db"),
	}}
	database, err := InitialiseDatabase(cfg)
	if err != nil {
		t.Fatalf("InitialiseDatabase failed: %v", err)
	}
	return database
}

func TestInitialiseDatabase_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle", DSN: "x"}}
	if _, err := InitialiseDatabase(cfg); err == nil {
		t.Error("Expected an error for an unsupported driver")
	}
}

func TestSeedDummyData_RunsOnce(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	for range 2 {
		if err := SeedDummyData(ctx, database); err != nil {
			t.Fatalf("SeedDummyData failed: %v", err)
		}
	}

	surveys, err := gorm.G[Survey](database).Where("unique_link = ?", DummyLink).Count(ctx, "id")
	if err != nil {
		t.Fatalf("failed to count surveys: %v", err)
	}
	if surveys != 1 {
		t.Errorf("Expected exactly one demo survey, got %d", surveys)
	}
	teachers, err := gorm.G[SurveyTeacher](database).Count(ctx, "id")
	if err != nil {
		t.Fatalf("failed to count survey teachers: %v", err)
	}
	if teachers != 2 {
		t.Errorf("Expected two linked teachers, got %d", teachers)
	}
}

func TestAnswerValue_ReadsBackEveryKind(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	if err := SeedDummyData(ctx, database); err != nil {
		t.Fatalf("SeedDummyData failed: %v", err)
	}
	survey, err := gorm.G[Survey](database).Where("unique_link = ?", DummyLink).First(ctx)
	if err != nil {
		t.Fatalf("failed to load demo survey: %v", err)
	}
	questions, err := gorm.G[Question](database).Where("survey_id = ?", survey.ID).Order("position ASC").Find(ctx)
	if err != nil || len(questions) != 3 {
		t.Fatalf("failed to load demo questions: %v", err)
	}

	session := Session{SurveyID: survey.ID, SessionToken: "token", ExpiresAt: time.Now().Add(time.Hour)}
	if err := gorm.G[Session](database).Create(ctx, &session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	response := Response{SurveyID: survey.ID, SessionID: session.ID, Completed: true, SubmittedAt: time.Now()}
	if err := gorm.G[Response](database).Create(ctx, &response); err != nil {
		t.Fatalf("failed to create response: %v", err)
	}

	values := []string{`3`, `"Sí"`, `["a","b"]`}
	for i, value := range values {
		answer := Answer{ResponseID: response.ID, QuestionID: questions[i].ID, Value: datatypes.JSON(value)}
		if err := gorm.G[Answer](database).Create(ctx, &answer); err != nil {
			t.Fatalf("failed to create answer: %v", err)
		}
	}

	answers, err := gorm.G[Answer](database).Where("response_id = ?", response.ID).Order("question_id ASC").Find(ctx)
	if err != nil {
		t.Fatalf("failed to read answers back: %v", err)
	}
	if len(answers) != len(values) {
		t.Fatalf("Expected %d answers, got %d", len(values), len(answers))
	}
	for i, answer := range answers {
		if string(answer.Value) != values[i] {
			t.Errorf("Expected answer %d to read back as %s, got %s", i, values[i], answer.Value)
		}
	}
}

func TestQuestionOptionList(t *testing.T) {
	tests := []struct {
		name    string
		options datatypes.JSON
		want    int
	}{
		{"empty", nil, 0},
		{"list", datatypes.JSON(`["a","b","c"]`), 3},
		{"not a list", datatypes.JSON(`{"a":1}`), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Question{Options: tt.options}.OptionList()
			if len(got) != tt.want {
				t.Errorf("Expected %d options, got %v", tt.want, got)
			}
		})
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	session := Session{ExpiresAt: now}
	if session.Expired(now) {
		t.Error("Expected the session to be usable at its expiry instant")
	}
	if !session.Expired(now.Add(time.Second)) {
		t.Error("Expected the session to be expired after its expiry instant")
	}
}

func TestEnumValidation(t *testing.T) {
	if !SurveyActive.Valid() || SurveyStatus("paused").Valid() {
		t.Error("Unexpected survey status validation")
	}
	if !QuestionCheckbox.IsChoice() || QuestionRating.IsChoice() {
		t.Error("Unexpected choice classification")
	}
}
