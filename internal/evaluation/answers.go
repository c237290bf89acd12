package evaluation

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	models "github.com/CLDWare/evaluations-backend/pkg/db"
)

// AnswerValue is a decoded answer. Which field is set depends on Type.
type AnswerValue struct {
	QuestionID uint
	Type       models.QuestionType
	Text       string   // text, textarea and multiple_choice
	Number     float64  // rating
	Choices    []string // checkbox
}

// JSON encodes the value the way it is stored in Answer.Value
func (v AnswerValue) JSON() datatypes.JSON {
	var raw []byte
	switch v.Type {
	case models.QuestionRating:
		raw, _ = json.Marshal(v.Number)
	case models.QuestionCheckbox:
		raw, _ = json.Marshal(v.Choices)
	default:
		raw, _ = json.Marshal(v.Text)
	}
	return datatypes.JSON(raw)
}

// empty reports whether the value counts as unanswered. Zero ratings are answers.
func (v AnswerValue) empty() bool {
	switch v.Type {
	case models.QuestionRating:
		return false
	case models.QuestionCheckbox:
		return len(v.Choices) == 0
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeAnswer decodes raw by the question's type, reporting false when the value does not fit
func decodeAnswer(question models.Question, raw json.RawMessage) (AnswerValue, bool) {
	value := AnswerValue{QuestionID: question.ID, Type: question.Type}
	options := question.OptionList()

	switch question.Type {
	case models.QuestionText, models.QuestionTextarea:
		if err := json.Unmarshal(raw, &value.Text); err != nil {
			return value, false
		}
	case models.QuestionRating:
		if err := json.Unmarshal(raw, &value.Number); err != nil {
			return value, false
		}
		if question.MinValue != nil && value.Number < *question.MinValue {
			return value, false
		}
		if question.MaxValue != nil && value.Number > *question.MaxValue {
			return value, false
		}
	case models.QuestionMultipleChoice:
		if err := json.Unmarshal(raw, &value.Text); err != nil {
			return value, false
		}
		if value.Text != "" && len(options) > 0 && !slices.Contains(options, value.Text) {
			return value, false
		}
	case models.QuestionCheckbox:
		if err := json.Unmarshal(raw, &value.Choices); err != nil {
			return value, false
		}
		if len(options) > 0 {
			for _, choice := range value.Choices {
				if !slices.Contains(options, choice) {
					return value, false
				}
			}
		}
	default:
		return value, false
	}
	return value, true
}

// validateAnswers checks every submitted answer against the survey's questions.
// Every offending question is reported at once, in this order of precedence:
// unknown keys, invalid values, missing required answers.
func validateAnswers(questions []models.Question, answers map[string]json.RawMessage) ([]AnswerValue, error) {
	byID := make(map[uint]models.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	var unknown []string
	for key := range answers {
		id, err := strconv.ParseUint(strings.TrimSpace(key), 10, 0)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		if _, ok := byID[uint(id)]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, ErrUnknownQuestion.withDetail(strings.Join(unknown, ","))
	}

	present := make(map[uint]json.RawMessage, len(answers))
	for key, raw := range answers {
		id, _ := strconv.ParseUint(strings.TrimSpace(key), 10, 0)
		present[uint(id)] = raw
	}

	var (
		values  []AnswerValue
		invalid []uint
		missing []uint
	)
	for _, question := range questions {
		raw, ok := present[question.ID]
		if !ok || isNull(raw) {
			if question.Required {
				missing = append(missing, question.ID)
			}
			continue
		}

		value, ok := decodeAnswer(question, raw)
		if !ok {
			invalid = append(invalid, question.ID)
			continue
		}
		if value.empty() {
			if question.Required {
				missing = append(missing, question.ID)
			}
			continue
		}
		values = append(values, value)
	}

	if len(invalid) > 0 {
		return nil, ErrInvalidAnswer.withQuestions(invalid)
	}
	if len(missing) > 0 {
		return nil, ErrMissingRequiredAnswers.withQuestions(missing)
	}
	return values, nil
}
