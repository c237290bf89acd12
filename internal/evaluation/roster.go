package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

type TeacherInput struct {
	Name        string        `json:"name"`
	Email       *string       `json:"email"`
	Subject     *string       `json:"subject"`
	Diplomatura *string       `json:"diplomatura"`
	Photo       *string       `json:"photo"`
	Status      models.Status `json:"status"` // defaults to active
}

type StudentInput struct {
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Email       *string       `json:"email"`
	Diplomatura *string       `json:"diplomatura"`
	Status      models.Status `json:"status"` // defaults to active
}

type TeacherRecord struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Email       *string       `json:"email"`
	Subject     *string       `json:"subject"`
	Diplomatura *string       `json:"diplomatura"`
	Photo       *string       `json:"photo"`
	Status      models.Status `json:"status"`
}

type StudentRecord struct {
	ID          uint          `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Email       *string       `json:"email"`
	Diplomatura *string       `json:"diplomatura"`
	Status      models.Status `json:"status"`
}

const (
	BulkCreated = "created"
	BulkSkipped = "skipped"
	BulkFailed  = "error"
)

// BulkItem is the outcome of one entry of a bulk import
type BulkItem struct {
	Index  int    `json:"index"`
	ID     *uint  `json:"id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BulkResult summarises a bulk import. A failing item never aborts the others.
type BulkResult struct {
	Total   int        `json:"total"`
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  int        `json:"errors"`
	Items   []BulkItem `json:"items"`
}

func (r *BulkResult) add(index int, id uint, err error) {
	item := BulkItem{Index: index}
	switch {
	case err == nil:
		item.ID = &id
		item.Status = BulkCreated
		r.Created++
	case errors.Is(err, ErrStudentExists):
		item.Status = BulkSkipped
		item.Error = err.Error()
		r.Skipped++
	default:
		item.Status = BulkFailed
		item.Error = err.Error()
		r.Errors++
	}
	r.Total++
	r.Items = append(r.Items, item)
}

func (in *TeacherInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &InputError{Field: "name", Message: "is required"}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &InputError{Field: "status", Message: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}

func (in *StudentInput) validate() error {
	if !ValidStudentCode(NormalizeStudentCode(in.Code)) {
		return &InputError{Field: "code", Message: "must be 8 letters or digits"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return &InputError{Field: "name", Message: "is required"}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &InputError{Field: "status", Message: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}

func statusOrActive(status models.Status) models.Status {
	if status == "" {
		return models.StatusActive
	}
	return status
}

func toTeacherRecord(teacher models.Teacher) TeacherRecord {
	return TeacherRecord{
		ID:          teacher.ID,
		Name:        teacher.Name,
		Email:       teacher.Email,
		Subject:     teacher.Subject,
		Diplomatura: teacher.Diplomatura,
		Photo:       teacher.Photo,
		Status:      teacher.Status,
	}
}

func toStudentRecord(student models.Student) StudentRecord {
	return StudentRecord{
		ID:          student.ID,
		Code:        student.Code,
		Name:        student.Name,
		Email:       student.Email,
		Diplomatura: student.Diplomatura,
		Status:      student.Status,
	}
}

// ListTeachers returns every teacher ordered by name
func (s *Service) ListTeachers(ctx context.Context) ([]TeacherRecord, error) {
	teachers, err := gorm.G[models.Teacher](s.db).Order("name ASC").Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	records := make([]TeacherRecord, len(teachers))
	for i, teacher := range teachers {
		records[i] = toTeacherRecord(teacher)
	}
	return records, nil
}

func (s *Service) CreateTeacher(ctx context.Context, in TeacherInput) (*TeacherRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	teacher := models.Teacher{
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Subject:     in.Subject,
		Diplomatura: in.Diplomatura,
		Photo:       in.Photo,
		Status:      statusOrActive(in.Status),
	}
	if err := gorm.G[models.Teacher](s.db).Create(ctx, &teacher); err != nil {
		return nil, fmt.Errorf("failed to create teacher: %w", err)
	}
	record := toTeacherRecord(teacher)
	return &record, nil
}

// UpdateTeacher replaces a teacher's fields and drops the cached definitions of the surveys listing them
func (s *Service) UpdateTeacher(ctx context.Context, id uint, in TeacherInput) (*TeacherRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	teacher, err := gorm.G[models.Teacher](s.db).Where("id = ?", id).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTeacherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load teacher: %w", err)
	}

	teacher.Name = strings.TrimSpace(in.Name)
	teacher.Email = in.Email
	teacher.Subject = in.Subject
	teacher.Diplomatura = in.Diplomatura
	teacher.Photo = in.Photo
	teacher.Status = statusOrActive(in.Status)
	if err := s.db.WithContext(ctx).Save(&teacher).Error; err != nil {
		return nil, fmt.Errorf("failed to update teacher: %w", err)
	}

	var links []string
	err = s.db.WithContext(ctx).Model(&models.Survey{}).
		Joins("JOIN survey_teachers ON survey_teachers.survey_id = surveys.id").
		Where("survey_teachers.teacher_id = ?", id).
		Pluck("surveys.unique_link", &links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up surveys of teacher: %w", err)
	}
	for _, link := range links {
		s.InvalidateDefinition(ctx, link)
	}

	record := toTeacherRecord(teacher)
	return &record, nil
}

func (s *Service) BulkCreateTeachers(ctx context.Context, inputs []TeacherInput) BulkResult {
	result := BulkResult{Items: make([]BulkItem, 0, len(inputs))}
	for i, in := range inputs {
		var id uint
		record, err := s.CreateTeacher(ctx, in)
		if record != nil {
			id = record.ID
		}
		result.add(i, id, err)
	}
	return result
}

// ListStudents returns every student ordered by code
func (s *Service) ListStudents(ctx context.Context) ([]StudentRecord, error) {
	students, err := gorm.G[models.Student](s.db).Order("code ASC").Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	records := make([]StudentRecord, len(students))
	for i, student := range students {
		records[i] = toStudentRecord(student)
	}
	return records, nil
}

// CreateStudent stores a student under its upper-cased code. A taken code is ErrStudentExists.
func (s *Service) CreateStudent(ctx context.Context, in StudentInput) (*StudentRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	student := models.Student{
		Code:        NormalizeStudentCode(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Diplomatura: in.Diplomatura,
		Status:      statusOrActive(in.Status),
	}

	count, err := gorm.G[models.Student](s.db).Where("code = ?", student.Code).Count(ctx, "id")
	if err != nil {
		return nil, fmt.Errorf("failed to look up student: %w", err)
	}
	if count > 0 {
		return nil, ErrStudentExists
	}

	err = gorm.G[models.Student](s.db).Create(ctx, &student)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrStudentExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	record := toStudentRecord(student)
	return &record, nil
}

// BulkCreateStudents imports students one by one. Taken codes are reported as skipped.
func (s *Service) BulkCreateStudents(ctx context.Context, inputs []StudentInput) BulkResult {
	result := BulkResult{Items: make([]BulkItem, 0, len(inputs))}
	for i, in := range inputs {
		var id uint
		record, err := s.CreateStudent(ctx, in)
		if record != nil {
			id = record.ID
		}
		result.add(i, id, err)
	}
	return result
}

// BulkCreateSurveys creates each survey independently and reports per-item outcomes
func (s *Service) BulkCreateSurveys(ctx context.Context, inputs []SurveyInput) BulkResult {
	result := BulkResult{Items: make([]BulkItem, 0, len(inputs))}
	for i, in := range inputs {
		var id uint
		record, err := s.CreateSurvey(ctx, in)
		if record != nil {
			id = record.ID
		}
		result.add(i, id, err)
	}
	return result
}
