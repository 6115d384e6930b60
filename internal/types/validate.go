// Package types provides type definitions for structured data used throughout the career-navigator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator with struct-level rules registered
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterStructValidation(skillRecordStructLevel, SkillRecord{})
	})
	return validate
}

// skillRecordStructLevel rejects a level on a missing skill
func skillRecordStructLevel(sl validator.StructLevel) {
	record := sl.Current().Interface().(SkillRecord)
	if record.Status == SkillMissing && record.Level != nil {
		sl.ReportError(record.Level, "Level", "level", "nolevel_when_missing", "")
	}
}

// ValidationError describes a value that failed boundary validation
type ValidationError struct {
	Subject string
	Cause   error
}

func (e *ValidationError) Error() string {
	var ve validator.ValidationErrors
	if errors.As(e.Cause, &ve) {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
		}
		return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("invalid %s: %v", e.Subject, e.Cause)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func validateStruct(subject string, v any) error {
	if err := validatorInstance().Struct(v); err != nil {
		return &ValidationError{Subject: subject, Cause: err}
	}
	return nil
}

// Validate validates the skill record
func (r SkillRecord) Validate() error {
	return validateStruct("skill record", r)
}

// Validate validates the skill analysis
func (a *SkillAnalysis) Validate() error {
	return validateStruct("skill analysis", a)
}

// Validate validates the career path candidate
func (c CareerPathCandidate) Validate() error {
	return validateStruct("career path", c)
}

// Validate validates the job candidate
func (j JobCandidate) Validate() error {
	return validateStruct("job candidate", j)
}

// ValidateJobs validates each job and rejects duplicate IDs
func ValidateJobs(jobs []JobCandidate) error {
	seen := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
		if seen[job.ID] {
			return &ValidationError{Subject: "job candidates", Cause: fmt.Errorf("duplicate job id %q", job.ID)}
		}
		seen[job.ID] = true
	}
	return nil
}

// ValidatePaths validates each career path
func ValidatePaths(paths []CareerPathCandidate) error {
	for i, path := range paths {
		if err := path.Validate(); err != nil {
			return fmt.Errorf("path %d: %w", i, err)
		}
	}
	return nil
}

// ValidateCategories validates each skill category
func ValidateCategories(categories []SkillCategory) error {
	for _, cat := range categories {
		if err := validateStruct("skill category", cat); err != nil {
			return err
		}
	}
	return nil
}
