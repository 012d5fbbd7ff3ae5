package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"jobportal/backend/internal/apperrors"
	"jobportal/backend/internal/models"
	"jobportal/backend/internal/repositories"
)

const dateLayout = "2006-01-02"

var acceptedDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"Jan 2, 2006",
	"2 January 2006",
}

type ValidationLimits struct {
	ResumeMaxSize    int64
	AnswerMaxSize    int64
	ResumeExtensions []string
	// AnswerExtensions limits file answers. Empty allows any extension.
	AnswerExtensions []string
}

// ValidatedSubmission is an application that passed every check and is ready
// to be persisted.
type ValidatedSubmission struct {
	Candidate models.Actor
	Job       *models.JobPost
	Contact   models.ContactFields
	Resume    *models.Upload
	Answers   []ValidatedAnswer
}

// ValidatedAnswer holds either a normalized scalar value or a file to store.
type ValidatedAnswer struct {
	Field models.FieldDefinition
	Value *string
	File  *models.Upload
}

type ApplicationValidator struct {
	store     *repositories.Store
	validate  *validator.Validate
	inspector DocumentInspector
	limits    ValidationLimits
}

func NewApplicationValidator(store *repositories.Store, inspector DocumentInspector, limits ValidationLimits) *ApplicationValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	return &ApplicationValidator{
		store:     store,
		validate:  v,
		inspector: inspector,
		limits:    limits,
	}
}

func (v *ApplicationValidator) Validate(ctx context.Context, actor models.Actor, sub models.Submission) (*ValidatedSubmission, error) {
	ctx, span := tracer.Start(ctx, "ApplicationValidator.Validate")
	defer span.End()

	if !actor.IsCandidate() {
		return nil, apperrors.Forbidden("only candidates can apply for jobs")
	}
	job, err := findJob(ctx, v.store.JobPosts(), sub.JobPostID)
	if err != nil {
		return nil, err
	}

	contact := normalizeContact(sub.Contact)
	violations := v.checkContact(contact)
	v.checkResume(sub.Resume, &violations)
	if err := violations.Err("invalid application"); err != nil {
		return nil, err
	}

	exists, err := v.store.Applications().Exists(ctx, actor.UserID, job.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to check existing application", err)
	}
	if exists {
		return nil, apperrors.Conflict("You have already applied to this job.", nil)
	}

	fields, err := v.store.Fields().ListByJobPost(ctx, job.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to load fields", err)
	}
	answers, answerViolations := v.checkAnswers(fields, sub.Answers)
	violations = append(append(apperrors.Violations{}, sub.Malformed...), answerViolations...)
	if err := violations.Err("invalid answers"); err != nil {
		return nil, err
	}

	return &ValidatedSubmission{
		Candidate: actor,
		Job:       job,
		Contact:   contact,
		Resume:    sub.Resume,
		Answers:   answers,
	}, nil
}

func normalizeContact(c models.ContactFields) models.ContactFields {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.CoverLetter != nil {
		if trimmed := strings.TrimSpace(*c.CoverLetter); trimmed != "" {
			c.CoverLetter = &trimmed
		} else {
			c.CoverLetter = nil
		}
	}
	return c
}

func (v *ApplicationValidator) checkContact(contact models.ContactFields) apperrors.Violations {
	var out apperrors.Violations

	err := v.validate.Struct(contact)
	if err == nil {
		return out
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		out.Add("contact", "%s", err.Error())
		return out
	}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			out.Add(fe.Field(), "is required")
		case "max":
			out.Add(fe.Field(), "may not be greater than %s characters", fe.Param())
		case "email":
			out.Add(fe.Field(), "must be a valid email address")
		default:
			out.Add(fe.Field(), "is invalid")
		}
	}
	return out
}

func (v *ApplicationValidator) checkResume(resume *models.Upload, out *apperrors.Violations) {
	if resume == nil {
		out.Add("resume", "is required")
		return
	}

	valid := true
	if len(v.limits.ResumeExtensions) == 0 || !allowedExt(v.limits.ResumeExtensions, resume.Ext()) {
		out.Add("resume", "must be a file of type: %s", extList(v.limits.ResumeExtensions))
		valid = false
	}
	if resume.Size > v.limits.ResumeMaxSize {
		out.Add("resume", "may not be greater than %d kilobytes", v.limits.ResumeMaxSize/1024)
		valid = false
	}
	if valid && v.inspector != nil {
		if err := v.inspector.Inspect(resume); err != nil {
			out.Add("resume", "must be a readable document")
		}
	}
}

func allowedExt(allowed []string, ext string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}
	return false
}

func extList(exts []string) string {
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = strings.TrimPrefix(ext, ".")
	}
	return strings.Join(names, ", ")
}

// checkAnswers matches answers to the job's fields. Answers for unknown
// fields are dropped. Every answer to a known field is kept, blank ones with a
// nil value, and only enabled fields can be required.
func (v *ApplicationValidator) checkAnswers(fields []models.FieldDefinition, answers []models.AnswerInput) ([]ValidatedAnswer, apperrors.Violations) {
	var out apperrors.Violations

	known := make(map[uint]models.FieldDefinition, len(fields))
	for _, f := range fields {
		known[f.ID] = f
	}

	answered := make(map[uint]bool, len(answers))
	seen := make(map[uint]bool, len(answers))
	validated := make([]ValidatedAnswer, 0, len(answers))

	for _, a := range answers {
		field, ok := known[a.FieldID]
		if !ok {
			continue
		}
		key := fmt.Sprintf("fields.%d", field.ID)
		if seen[field.ID] {
			out.Add(key, "%q was answered more than once", field.Name)
			continue
		}
		seen[field.ID] = true

		answer, filled, msg := v.checkAnswer(field, a)
		if msg != "" {
			out.Add(key, "%q %s", field.Name, msg)
			continue
		}
		answered[field.ID] = filled
		validated = append(validated, answer)
	}

	for _, f := range fields {
		if f.Status && f.IsRequired && !answered[f.ID] && !hasViolation(out, f.ID) {
			out.Add(fmt.Sprintf("fields.%d", f.ID), "%q is required", f.Name)
		}
	}
	return validated, out
}

func hasViolation(v apperrors.Violations, fieldID uint) bool {
	key := fmt.Sprintf("fields.%d", fieldID)
	for _, violation := range v {
		if violation.Field == key {
			return true
		}
	}
	return false
}

// checkAnswer returns the normalized answer, whether it carries content, and
// a violation message when the answer does not fit the field.
func (v *ApplicationValidator) checkAnswer(field models.FieldDefinition, a models.AnswerInput) (ValidatedAnswer, bool, string) {
	answer := ValidatedAnswer{Field: field}

	if field.Type == models.FieldTypeFile {
		if a.File == nil {
			if a.Value != nil && strings.TrimSpace(*a.Value) != "" {
				return answer, false, "must be an uploaded file"
			}
			return answer, false, ""
		}
		if !allowedExt(v.limits.AnswerExtensions, a.File.Ext()) {
			return answer, false, "must be a file of type: " + extList(v.limits.AnswerExtensions)
		}
		if a.File.Size > v.limits.AnswerMaxSize {
			return answer, false, fmt.Sprintf("may not be greater than %d kilobytes", v.limits.AnswerMaxSize/1024)
		}
		answer.File = a.File
		return answer, true, ""
	}

	if a.File != nil {
		return answer, false, "expects a value, not a file"
	}
	if a.Value == nil || strings.TrimSpace(*a.Value) == "" {
		return answer, false, ""
	}

	value, msg := normalizeValue(field, strings.TrimSpace(*a.Value))
	if msg != "" {
		return answer, false, msg
	}
	answer.Value = &value
	return answer, true, ""
}

func normalizeValue(field models.FieldDefinition, raw string) (string, string) {
	switch field.Type {
	case models.FieldTypeNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return "", "must be a number"
		}
		return strconv.FormatFloat(n, 'f', -1, 64), ""
	case models.FieldTypeDate:
		for _, layout := range acceptedDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(dateLayout), ""
			}
		}
		return "", "must be a valid date"
	case models.FieldTypeSelect:
		if !field.Options.Contains(raw) {
			return "", "must be one of: " + strings.Join(field.Options, ", ")
		}
		return raw, ""
	default:
		return raw, ""
	}
}
