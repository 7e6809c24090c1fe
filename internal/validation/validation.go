// Package validation checks outgoing requests against the OpenAPI document
// they were built from, before they are sent.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pb33f/libopenapi"
	validator "github.com/pb33f/libopenapi-validator"
	validatorErrors "github.com/pb33f/libopenapi-validator/errors"
)

type Validator struct {
	validator validator.Validator
}

func New(doc libopenapi.Document) (*Validator, error) {
	v, errs := validator.NewValidator(doc)
	if len(errs) > 0 {
		return nil, fmt.Errorf("creating request validator: %w", errors.Join(errs...))
	}
	return &Validator{validator: v}, nil
}

// Validate returns an *Error describing every violation, or nil. The body of
// req stays readable for the caller.
func (v *Validator) Validate(req *http.Request) error {
	check := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("copying request body: %w", err)
		}
		check.Body = body
	}

	valid, errs := v.validator.ValidateHttpRequestSync(check)
	if valid {
		return nil
	}
	return &Error{Errors: errs}
}

// Error wraps libopenapi-validator errors.
type Error struct {
	Errors []*validatorErrors.ValidationError
}

func (e *Error) Error() string {
	details := make([]string, 0, len(e.Errors))
	for _, d := range e.Details() {
		line := d.Message
		if d.Reason != "" {
			line += ": " + d.Reason
		}
		details = append(details, line)
	}
	if len(details) == 0 {
		return "request validation failed"
	}
	return "request validation failed: " + strings.Join(details, "; ")
}

type Detail struct {
	Message  string `json:"message"`
	Reason   string `json:"reason,omitempty"`
	HowToFix string `json:"howToFix,omitempty"`
}

func (e *Error) Details() []Detail {
	var result []Detail
	for _, ve := range e.Errors {
		if ve == nil {
			continue
		}
		result = append(result, Detail{Message: ve.Message, Reason: ve.Reason, HowToFix: ve.HowToFix})
	}
	return result
}
