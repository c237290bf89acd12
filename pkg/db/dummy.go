package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DummyLink is the unique link of the seeded demo survey
const DummyLink = "demo2025ev"

// SeedDummyData fills an empty database with a demo survey, two teachers and a student.
// It does nothing when the demo survey already exists.
func SeedDummyData(ctx context.Context, db *gorm.DB) error {
	count, err := gorm.G[Survey](db).Where("unique_link = ?", DummyLink).Count(ctx, "id")
	if err != nil {
		return fmt.Errorf("failed to look up demo survey: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subject1, subject2 := "Matemática", "Lenguaje"
		teacher1 := Teacher{Name: "Ana Torres", Subject: &subject1, Status: StatusActive}
		teacher2 := Teacher{Name: "Luis Paredes", Subject: &subject2, Status: StatusActive}
		for _, teacher := range []*Teacher{&teacher1, &teacher2} {
			if err := gorm.G[Teacher](tx).Create(ctx, teacher); err != nil {
				return fmt.Errorf("failed to create teacher: %w", err)
			}
		}

		diplomatura := "Gestión Educativa"
		student := Student{Code: "ABCD1234", Name: "María Quispe", Diplomatura: &diplomatura, Status: StatusActive}
		if err := gorm.G[Student](tx).Create(ctx, &student); err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}

		startsAt := time.Now().Add(-time.Hour)
		survey := Survey{
			Title:        "Evaluación docente 2025-I",
			Type:         SurveyTypeTeacherEvaluation,
			Status:       SurveyActive,
			UniqueLink:   DummyLink,
			StartsAt:     &startsAt,
			RequiresCode: true,
		}
		if err := gorm.G[Survey](tx).Create(ctx, &survey); err != nil {
			return fmt.Errorf("failed to create survey: %w", err)
		}

		minValue, maxValue := 1.0, 5.0
		options, _ := json.Marshal([]string{"Sí", "No"})
		questions := []Question{
			{SurveyID: survey.ID, Order: 1, Type: QuestionRating, Question: "¿Cómo calificas la claridad de las clases?", Required: true, MinValue: &minValue, MaxValue: &maxValue},
			{SurveyID: survey.ID, Order: 2, Type: QuestionMultipleChoice, Question: "¿Recomendarías al docente?", Required: true, Options: datatypes.JSON(options)},
			{SurveyID: survey.ID, Order: 3, Type: QuestionTextarea, Question: "Comentarios adicionales"},
		}
		if err := tx.Create(&questions).Error; err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}

		links := []SurveyTeacher{
			{SurveyID: survey.ID, TeacherID: teacher1.ID, Order: 1},
			{SurveyID: survey.ID, TeacherID: teacher2.ID, Order: 2},
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to link teachers: %w", err)
		}
		return nil
	})
}
