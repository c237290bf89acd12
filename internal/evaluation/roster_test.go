package evaluation

import (
	"context"
	"errors"
	"slices"
	"testing"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

func TestCreateStudent(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	record, err := service.CreateStudent(ctx, StudentInput{Code: " abcd1234 ", Name: "Ana"})
	if err != nil {
		t.Fatalf("CreateStudent failed: %v", err)
	}
	if record.Code != "ABCD1234" || record.Status != models.StatusActive {
		t.Errorf("Expected upper-cased code and active status, got %+v", record)
	}

	_, err = service.CreateStudent(ctx, StudentInput{Code: "ABCD1234", Name: "Otra"})
	assertDomainError(t, err, ErrStudentExists)

	_, err = service.CreateStudent(ctx, StudentInput{Code: "ABC", Name: "Corta"})
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "code" {
		t.Errorf("Expected code input error, got %v", err)
	}
}

func TestBulkCreateStudents_SkipsDuplicates(t *testing.T) {
	service, database, _ := newTestService(t)
	ctx := context.Background()
	createStudent(t, database, "EXIST001", models.StatusActive)

	result := service.BulkCreateStudents(ctx, []StudentInput{
		{Code: "NEW00001", Name: "Uno"},
		{Code: "exist001", Name: "Repetido"},
		{Code: "bad", Name: "Mal"},
		{Code: "NEW00002", Name: "Dos"},
	})

	if result.Total != 4 || result.Created != 2 || result.Skipped != 1 || result.Errors != 1 {
		t.Errorf("Unexpected summary %+v", result)
	}
	statuses := make([]string, len(result.Items))
	for i, item := range result.Items {
		statuses[i] = item.Status
	}
	want := []string{BulkCreated, BulkSkipped, BulkFailed, BulkCreated}
	if !slices.Equal(statuses, want) {
		t.Errorf("Expected item statuses %v, got %v", want, statuses)
	}
	if got := countRows[models.Student](t, database); got != 3 {
		t.Errorf("Expected 3 students stored, got %d", got)
	}
}

func TestTeachers(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()
	cache := newMemoryCache()
	service.SetCache(cache)

	result := service.BulkCreateTeachers(ctx, []TeacherInput{
		{Name: "Marta Gómez"},
		{Name: " "},
		{Name: "Luis Pérez", Status: models.StatusInactive},
	})
	if result.Created != 2 || result.Errors != 1 {
		t.Fatalf("Unexpected summary %+v", result)
	}

	teachers, err := service.ListTeachers(ctx)
	if err != nil {
		t.Fatalf("ListTeachers failed: %v", err)
	}
	if len(teachers) != 2 || teachers[0].Name != "Luis Pérez" {
		t.Fatalf("Expected teachers ordered by name, got %+v", teachers)
	}

	survey, err := service.CreateSurvey(ctx, SurveyInput{
		Title:        "Evaluación",
		Type:         models.SurveyTypeTeacherEvaluation,
		TeacherNames: []string{"Marta Gómez"},
	})
	if err != nil {
		t.Fatalf("CreateSurvey failed: %v", err)
	}

	subject := "Matemática"
	updated, err := service.UpdateTeacher(ctx, teachers[1].ID, TeacherInput{Name: "Marta Gómez", Subject: &subject})
	if err != nil {
		t.Fatalf("UpdateTeacher failed: %v", err)
	}
	if updated.Subject == nil || *updated.Subject != subject {
		t.Errorf("Expected subject to be updated, got %+v", updated)
	}
	if !slices.Contains(cache.invalidated, survey.UniqueLink) {
		t.Errorf("Expected cached definition of %s to be dropped, got %v", survey.UniqueLink, cache.invalidated)
	}

	_, err = service.UpdateTeacher(ctx, 9999, TeacherInput{Name: "Nadie"})
	assertDomainError(t, err, ErrTeacherNotFound)
}

func TestBulkCreateSurveys(t *testing.T) {
	service, database, _ := newTestService(t)
	ctx := context.Background()

	result := service.BulkCreateSurveys(ctx, []SurveyInput{
		{Title: "Primera", Type: models.SurveyTypeInstitutional},
		{Title: "", Type: models.SurveyTypeInstitutional},
		{Title: "Tercera", Type: models.SurveyTypeCustom, TeacherNames: []string{"Desconocido"}},
	})
	if result.Created != 1 || result.Errors != 2 {
		t.Errorf("Unexpected summary %+v", result)
	}
	if got := countRows[models.Survey](t, database); got != 1 {
		t.Errorf("Expected only the valid survey to be stored, got %d", got)
	}
}
