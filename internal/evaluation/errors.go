package evaluation

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind classifies an Error for the transport layer
type Kind int

const (
	KindNotFound Kind = iota
	KindForbidden
	KindValidation
	KindExpired
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindExpired:
		return "expired"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a domain error returned by Service. Errors compare equal under errors.Is when their codes match.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Questions []uint // offending question ids, if any
}

func (e *Error) Error() string {
	if len(e.Questions) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, JoinIDs(e.Questions))
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// withDetail returns a copy of e with detail appended to the message
func (e *Error) withDetail(detail string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message + ": " + detail}
}

// withQuestions returns a copy of e listing the given question ids in ascending order
func (e *Error) withQuestions(ids []uint) *Error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Questions: sorted}
}

var (
	ErrSurveyNotFound   = newError(KindNotFound, "survey_not_found", "Survey not found")
	ErrSurveyNotActive  = newError(KindForbidden, "survey_not_active", "Survey is not active")
	ErrSurveyNotStarted = newError(KindForbidden, "survey_not_started", "Survey has not started yet")
	ErrSurveyEnded      = newError(KindForbidden, "survey_ended", "Survey has ended")

	ErrInvalidCodeFormat = newError(KindValidation, "invalid_code_format", "Student code must be 8 letters or digits")
	ErrStudentNotFound   = newError(KindNotFound, "student_not_found", "Student code not found")
	ErrStudentInactive   = newError(KindForbidden, "student_inactive", "Student is not active")
	ErrStudentExists     = newError(KindConflict, "student_exists", "A student with this code already exists")

	ErrTokenRequired    = newError(KindValidation, "token_required", "Session token is required")
	ErrSessionNotFound  = newError(KindNotFound, "session_not_found", "Session not found")
	ErrSessionMismatch  = newError(KindValidation, "session_mismatch", "Session does not belong to this survey")
	ErrSessionExpired   = newError(KindExpired, "session_expired", "Session has expired")
	ErrSessionCompleted = newError(KindConflict, "session_completed", "Session is already completed")

	ErrTeacherNotFound    = newError(KindNotFound, "teacher_not_found", "Teacher not found")
	ErrTeacherRequired    = newError(KindValidation, "teacher_required", "Teacher is required")
	ErrTeacherNotInSurvey = newError(KindValidation, "teacher_not_in_survey", "Teacher is not part of this survey")
	ErrResponseExists     = newError(KindConflict, "response_exists", "A response for this teacher was already submitted")

	ErrUnknownQuestion        = newError(KindValidation, "unknown_question", "Answers reference questions outside this survey")
	ErrInvalidAnswer          = newError(KindValidation, "invalid_answer", "Some answers have an invalid value")
	ErrMissingRequiredAnswers = newError(KindValidation, "missing_required_answers", "Required questions are unanswered")
)

// AsError unwraps err into a domain *Error
func AsError(err error) (*Error, bool) {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// JoinIDs formats question ids as a comma separated list
func JoinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}
