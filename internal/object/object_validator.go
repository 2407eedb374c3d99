package object

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidGesture: object is malformed and must be dropped locally, never sent
var ErrInvalidGesture = errors.New("invalid gesture")

// removes all HTML/scripts
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeString strips markup from user supplied text and returns plain text.
// Entities the policy escapes are decoded again, so "&" stays one character;
// renderers escape on output.
func SanitizeString(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// Validator: validation and sanitization of drawable objects
type Validator struct {
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
}

func NewValidator() *Validator {
	return &Validator{
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sanitizer: strictPolicy,
	}
}

// ValidateAndSanitize: checks common fields and shape schema, sanitizes string fields in place.
// Every failure wraps ErrInvalidGesture.
func (v *Validator) ValidateAndSanitize(obj *Object) error {
	if obj == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidGesture)
	}
	if strings.TrimSpace(obj.ID) == "" {
		return fmt.Errorf("%w: missing object id", ErrInvalidGesture)
	}
	if strings.TrimSpace(obj.AuthorID) == "" {
		return fmt.Errorf("%w: missing author id", ErrInvalidGesture)
	}
	if obj.Shape == nil {
		return fmt.Errorf("%w: missing shape", ErrInvalidGesture)
	}

	if err := v.validate.Struct(obj.Shape); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return fmt.Errorf("%w: %s %s", ErrInvalidGesture, obj.Kind(), formatValidationErrors(validationErrors))
		}
		return fmt.Errorf("%w: %v", ErrInvalidGesture, err)
	}

	switch s := obj.Shape.(type) {
	case *FreehandStroke:
		if s.PathLength() == 0 {
			return fmt.Errorf("%w: zero-length stroke", ErrInvalidGesture)
		}
		s.Color = v.sanitizer.Sanitize(s.Color)
	case *Line:
		if s.Length() == 0 {
			return fmt.Errorf("%w: zero-length line", ErrInvalidGesture)
		}
		s.Color = v.sanitizer.Sanitize(s.Color)
	case *Rectangle:
		v.sanitizeStyle(&s.StyleProps)
	case *Circle:
		v.sanitizeStyle(&s.StyleProps)
	case *TextLabel:
		s.Text = strings.TrimSpace(html.UnescapeString(v.sanitizer.Sanitize(s.Text)))
		if s.Text == "" {
			return fmt.Errorf("%w: empty text", ErrInvalidGesture)
		}
		s.Color = v.sanitizer.Sanitize(s.Color)
	default:
		return fmt.Errorf("%w: %w %T", ErrInvalidGesture, ErrUnknownKind, obj.Shape)
	}

	obj.ID = v.sanitizer.Sanitize(obj.ID)
	return nil
}

func (v *Validator) sanitizeStyle(style *StyleProps) {
	style.Stroke = v.sanitizer.Sanitize(style.Stroke)
	style.Fill = v.sanitizer.Sanitize(style.Fill)
}

// formatValidationErrors reports the first failing field
func formatValidationErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "is invalid"
	}
	return formatSingleError(errs[0])
}

func formatSingleError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min", "max", "gt":
		return fmt.Sprintf("'%s' value out of allowed range", field)
	default:
		return fmt.Sprintf("'%s' is invalid", field)
	}
}
