package httpserver

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	vldOnce sync.Once
	vld     *validator.Validate

	subjectPattern = regexp.MustCompile(`^[\p{L}\p{N} &+._-]{1,80}$`)
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// validationDetails flattens validator errors into field -> tag.
func validationDetails(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return out
}

// ValidatePagination checks limit and offset query values and returns them
// with defaults applied.
func ValidatePagination(limit, offset string) (int, int, ValidationResult) {
	var errs []ValidationError
	l, o := defaultPageLimit, 0

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > maxPageLimit {
			errs = append(errs, ValidationError{
				Field:   "limit",
				Code:    "INVALID_FORMAT",
				Message: "Limit must be between 1 and 100",
			})
		} else {
			l = n
		}
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			errs = append(errs, ValidationError{
				Field:   "offset",
				Code:    "INVALID_FORMAT",
				Message: "Offset must be a non-negative integer",
			})
		} else {
			o = n
		}
	}

	if len(errs) > 0 {
		return 0, 0, ValidationResult{Valid: false, Errors: errs}
	}
	return l, o, ValidationResult{Valid: true}
}

// ValidateSubject checks a subject path or query value.
func ValidateSubject(subject string) ValidationResult {
	if subject == "" {
		return ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "subject", Code: "REQUIRED", Message: "Subject is required"}},
		}
	}
	if !subjectPattern.MatchString(subject) {
		return ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "subject", Code: "INVALID_FORMAT", Message: "Subject contains invalid characters"}},
		}
	}
	return ValidationResult{Valid: true}
}

// SanitizeString sanitizes a string input
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	if len(input) > 1000 {
		input = input[:1000]
	}
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}
	return input
}
