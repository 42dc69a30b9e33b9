package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Unwrap() error {
	return ErrInvalidConfig
}

// ValidateSettings checks the scalar sections.
func ValidateSettings(s *Settings) error {
	var errs ValidationErrors
	errs = append(errs, validateCore(&s.Core)...)
	errs = append(errs, validateLogging(&s.Logging)...)
	errs = append(errs, validateJournal(&s.Journal)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCore(c *CoreConfig) ValidationErrors {
	var errs ValidationErrors

	if c.BufferSize < 1 {
		errs = append(errs, *RangeError("core.buffer_size", 1, "unbounded"))
	}
	if c.PageSize < 1 {
		errs = append(errs, *RangeError("core.page_size", 1, "unbounded"))
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold >= 1 {
		errs = append(errs, ValidationError{
			Field:   "core.similarity_threshold",
			Message: fmt.Sprintf("threshold %v outside [0, 1)", c.SimilarityThreshold),
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file",
				Message: "file path is required when output is 'file'",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %q (valid: stdout, stderr, file)", l.Output),
		})
	}

	return errs
}

func validateJournal(j *JournalConfig) ValidationErrors {
	if j.Path != "" && strings.TrimSpace(j.Path) == "" {
		return ValidationErrors{{Field: "journal.path", Message: "path is blank"}}
	}
	return nil
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
