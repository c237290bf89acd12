package evaluation

import (
	"context"
	"testing"
	"time"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

func TestPublicSurvey(t *testing.T) {
	service, database, _ := newTestService(t)
	f := createFixture(t, database, surveyOptions{
		Teachers: 2,
		Questions: []models.Question{
			ratingQuestion(true, 1, 5),
			choiceQuestion(models.QuestionMultipleChoice, true, "Sí", "No"),
		},
	})

	definition, err := service.PublicSurvey(context.Background(), f.Survey.UniqueLink)
	if err != nil {
		t.Fatalf("PublicSurvey failed: %v", err)
	}
	if definition.ID != f.Survey.ID || definition.UniqueLink != f.Survey.UniqueLink {
		t.Errorf("Unexpected survey %+v", definition)
	}
	if len(definition.Questions) != 2 || definition.Questions[0].ID != f.Questions[0].ID {
		t.Fatalf("Expected questions in order, got %+v", definition.Questions)
	}
	if *definition.Questions[0].MaxValue != 5 {
		t.Errorf("Expected rating bounds to be exposed, got %+v", definition.Questions[0])
	}
	if got := definition.Questions[1].Options; len(got) != 2 || got[0] != "Sí" {
		t.Errorf("Expected decoded options, got %v", got)
	}
	if len(definition.Teachers) != 2 {
		t.Errorf("Expected 2 teachers, got %d", len(definition.Teachers))
	}
}

func TestPublicSurvey_Gates(t *testing.T) {
	past := baseTime.Add(-time.Minute)
	future := baseTime.Add(time.Minute)

	tests := []struct {
		name    string
		opts    surveyOptions
		wantErr *Error
	}{
		{name: "draft", opts: surveyOptions{Status: models.SurveyDraft}, wantErr: ErrSurveyNotActive},
		{name: "before start", opts: surveyOptions{StartsAt: &future}, wantErr: ErrSurveyNotStarted},
		{name: "after end", opts: surveyOptions{EndsAt: &past}, wantErr: ErrSurveyEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, database, _ := newTestService(t)
			f := createFixture(t, database, tt.opts)

			_, err := service.PublicSurvey(context.Background(), f.Survey.UniqueLink)
			assertDomainError(t, err, tt.wantErr)
		})
	}

	service, _, _ := newTestService(t)
	_, err := service.PublicSurvey(context.Background(), "missing")
	assertDomainError(t, err, ErrSurveyNotFound)
}

func TestPublicSurvey_UsesCacheAndGatesOnCurrentTime(t *testing.T) {
	service, database, clock := newTestService(t)
	cache := newMemoryCache()
	service.SetCache(cache)
	endsAt := baseTime.Add(time.Hour)
	f := createFixture(t, database, surveyOptions{Teachers: 1, EndsAt: &endsAt})
	ctx := context.Background()

	if _, err := service.PublicSurvey(ctx, f.Survey.UniqueLink); err != nil {
		t.Fatalf("PublicSurvey failed: %v", err)
	}
	if _, ok := cache.items[f.Survey.UniqueLink]; !ok {
		t.Fatal("Expected the definition to be cached")
	}

	// served from cache even once the row is gone
	if err := database.Delete(&models.Survey{}, f.Survey.ID).Error; err != nil {
		t.Fatalf("Failed to delete survey: %v", err)
	}
	if _, err := service.PublicSurvey(ctx, f.Survey.UniqueLink); err != nil {
		t.Fatalf("Expected cached definition, got %v", err)
	}

	clock.Advance(2 * time.Hour)
	_, err := service.PublicSurvey(ctx, f.Survey.UniqueLink)
	assertDomainError(t, err, ErrSurveyEnded)
}
