package evaluation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

func TestIssueSession_AnonymousWhenCodeNotRequired(t *testing.T) {
	service, database, _ := newTestService(t)
	f := createFixture(t, database, surveyOptions{Teachers: 2, Questions: []models.Question{ratingQuestion(true)}})

	// a code on a survey without code requirement is ignored
	descriptor, err := service.IssueSession(context.Background(), SessionRequest{UniqueLink: f.Survey.UniqueLink, StudentCode: "ZZZZ9999"})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if descriptor.Student != nil {
		t.Errorf("Expected anonymous session, got student %+v", descriptor.Student)
	}
	if len(descriptor.Token) != 64 {
		t.Errorf("Expected 64 hex characters in token, got %d", len(descriptor.Token))
	}
	if !descriptor.ExpiresAt.Equal(baseTime.Add(24 * time.Hour)) {
		t.Errorf("Expected expiry %v, got %v", baseTime.Add(24*time.Hour), descriptor.ExpiresAt)
	}
	if descriptor.Progress.TotalTeachers != 2 || descriptor.Progress.EvaluatedCount != 0 {
		t.Errorf("Unexpected progress %+v", descriptor.Progress)
	}
	if len(descriptor.Teachers) != 2 || descriptor.Teachers[0].Name != "Docente 1" {
		t.Errorf("Expected teachers in survey order, got %+v", descriptor.Teachers)
	}

	session, err := service.loadSession(context.Background(), descriptor.Token)
	if err != nil {
		t.Fatalf("Session was not stored: %v", err)
	}
	if session.StudentID != nil {
		t.Errorf("Expected stored session without student, got %d", *session.StudentID)
	}
}

func TestIssueSession_AnonymousSessionsAreNotReused(t *testing.T) {
	service, database, _ := newTestService(t)
	f := createFixture(t, database, surveyOptions{Teachers: 1})
	ctx := context.Background()

	first, err := service.IssueSession(ctx, SessionRequest{UniqueLink: f.Survey.UniqueLink})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	second, err := service.IssueSession(ctx, SessionRequest{UniqueLink: f.Survey.UniqueLink})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if first.Token == second.Token {
		t.Error("Expected a fresh token for every anonymous session")
	}
}

func TestIssueSession_StudentCodeChecks(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr *Error
	}{
		{name: "too short", code: "AB", wantErr: ErrInvalidCodeFormat},
		{name: "empty", code: "", wantErr: ErrInvalidCodeFormat},
		{name: "invalid characters", code: "ABCD-123", wantErr: ErrInvalidCodeFormat},
		{name: "unknown student", code: "ZZZZ9999", wantErr: ErrStudentNotFound},
		{name: "inactive student", code: "INAC0001", wantErr: ErrStudentInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, database, _ := newTestService(t)
			f := createFixture(t, database, surveyOptions{RequiresCode: true, Teachers: 1})
			createStudent(t, database, "INAC0001", models.StatusInactive)

			_, err := service.IssueSession(context.Background(), SessionRequest{UniqueLink: f.Survey.UniqueLink, StudentCode: tt.code})
			assertDomainError(t, err, tt.wantErr)

			if count := countRows[models.Session](t, database); count != 0 {
				t.Errorf("Expected no session rows after a failed code check, got %d", count)
			}
		})
	}
}

func TestIssueSession_NormalizesStudentCode(t *testing.T) {
	service, database, _ := newTestService(t)
	f := createFixture(t, database, surveyOptions{RequiresCode: true, Teachers: 1})
	student := createStudent(t, database, "ABCD1234", models.StatusActive)

	descriptor, err := service.IssueSession(context.Background(), SessionRequest{UniqueLink: f.Survey.UniqueLink, StudentCode: "  abcd1234 "})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if descriptor.Student == nil || descriptor.Student.Code != student.Code {
		t.Fatalf("Expected student %s, got %+v", student.Code, descriptor.Student)
	}
	if descriptor.Resumed {
		t.Error("Expected a new session, got a resumed one")
	}
}

func TestIssueSession_ResumesOpenSession(t *testing.T) {
	service, database, clock := newTestService(t)
	f := createFixture(t, database, surveyOptions{RequiresCode: true, Teachers: 2})
	createStudent(t, database, "ABCD1234", models.StatusActive)
	ctx := context.Background()
	req := SessionRequest{UniqueLink: f.Survey.UniqueLink, StudentCode: "ABCD1234"}

	first, err := service.IssueSession(ctx, req)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	second, err := service.IssueSession(ctx, req)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if !second.Resumed || second.Token != first.Token {
		t.Errorf("Expected the open session to be resumed, got resumed=%v token match=%v", second.Resumed, second.Token == first.Token)
	}
	if count := countRows[models.Session](t, database); count != 1 {
		t.Errorf("Expected 1 session row, got %d", count)
	}

	clock.Advance(25 * time.Hour)
	third, err := service.IssueSession(ctx, req)
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if third.Resumed || third.Token == first.Token {
		t.Error("Expected a new session once the previous one expired")
	}
}

func TestIssueSession_SurveyGates(t *testing.T) {
	past := baseTime.Add(-time.Hour)
	future := baseTime.Add(time.Hour)

	tests := []struct {
		name    string
		opts    surveyOptions
		link    string
		wantErr *Error
	}{
		{name: "unknown link", link: "does-not-exist", wantErr: ErrSurveyNotFound},
		{name: "draft survey", opts: surveyOptions{Status: models.SurveyDraft}, wantErr: ErrSurveyNotActive},
		{name: "closed survey", opts: surveyOptions{Status: models.SurveyClosed}, wantErr: ErrSurveyNotActive},
		{name: "not started", opts: surveyOptions{StartsAt: &future}, wantErr: ErrSurveyNotStarted},
		{name: "ended", opts: surveyOptions{EndsAt: &past}, wantErr: ErrSurveyEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, database, _ := newTestService(t)
			f := createFixture(t, database, tt.opts)
			link := f.Survey.UniqueLink
			if tt.link != "" {
				link = tt.link
			}

			_, err := service.IssueSession(context.Background(), SessionRequest{UniqueLink: link})
			domainErr := assertDomainError(t, err, tt.wantErr)
			if domainErr.Kind != tt.wantErr.Kind {
				t.Errorf("Expected kind %s, got %s", tt.wantErr.Kind, domainErr.Kind)
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	service, database, clock := newTestService(t)
	f := createFixture(t, database, surveyOptions{Teachers: 2, Questions: []models.Question{ratingQuestion(true)}})
	other := createFixture(t, database, surveyOptions{Teachers: 1})
	ctx := context.Background()

	descriptor, err := service.IssueSession(ctx, SessionRequest{UniqueLink: f.Survey.UniqueLink})
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	_, err = service.GetSession(ctx, f.Survey.UniqueLink, "  ")
	assertDomainError(t, err, ErrTokenRequired)

	_, err = service.GetSession(ctx, f.Survey.UniqueLink, "unknown-token")
	assertDomainError(t, err, ErrSessionNotFound)

	_, err = service.GetSession(ctx, other.Survey.UniqueLink, descriptor.Token)
	if domainErr := assertDomainError(t, err, ErrSessionMismatch); domainErr != nil && domainErr.Kind != KindValidation {
		t.Errorf("Expected a mismatched session to be a validation error, got %s", domainErr.Kind)
	}

	_, err = service.RecordResponse(ctx, Submission{
		UniqueLink:   f.Survey.UniqueLink,
		SessionToken: descriptor.Token,
		TeacherID:    f.teacherID(1),
		Answers:      map[string]json.RawMessage{f.questionKey(0): raw("4")},
	})
	if err != nil {
		t.Fatalf("RecordResponse failed: %v", err)
	}

	loaded, err := service.GetSession(ctx, f.Survey.UniqueLink, descriptor.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if loaded.Progress.EvaluatedCount != 1 || loaded.Progress.Completed {
		t.Errorf("Unexpected progress %+v", loaded.Progress)
	}
	if len(loaded.Progress.EvaluatedTeacherIDs) != 1 || loaded.Progress.EvaluatedTeacherIDs[0] != f.Teachers[1].ID {
		t.Errorf("Expected teacher %d evaluated, got %v", f.Teachers[1].ID, loaded.Progress.EvaluatedTeacherIDs)
	}
	if loaded.Teachers[0].Evaluated || !loaded.Teachers[1].Evaluated {
		t.Errorf("Expected only the second teacher marked evaluated, got %+v", loaded.Teachers)
	}

	clock.Advance(24*time.Hour + time.Second)
	_, err = service.GetSession(ctx, f.Survey.UniqueLink, descriptor.Token)
	domainErr := assertDomainError(t, err, ErrSessionExpired)
	if domainErr.Kind != KindExpired {
		t.Errorf("Expected kind expired, got %s", domainErr.Kind)
	}
}
