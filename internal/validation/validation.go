// Package validation checks inbound participant and message payloads and
// sanitizes their free-text fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/cwrk-planet/chatroom/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength = 64
	MaxTextLength = 4000
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ParticipantInput struct {
	Name string `json:"name" validate:"required,max=64"`
}

type MessageInput struct {
	To   string `json:"to" validate:"required,max=64"`
	Text string `json:"text" validate:"required,max=4000"`
	Type string `json:"type" validate:"required,oneof=message private_message status"`
}

// Participant validates in and returns the sanitized name.
func Participant(in ParticipantInput) (string, error) {
	if err := validate.Struct(in); err != nil {
		return "", toValidationError(err)
	}
	name := StripHTML(in.Name)
	if name == "" {
		return "", domain.NewValidationError("name must not be blank")
	}
	return name, nil
}

// Message validates in and returns a copy with the text sanitized.
func Message(in MessageInput) (MessageInput, error) {
	if err := validate.Struct(in); err != nil {
		return MessageInput{}, toValidationError(err)
	}
	out := in
	out.Text = StripHTML(in.Text)
	if out.Text == "" {
		return MessageInput{}, domain.NewValidationError("text must not be blank")
	}
	return out, nil
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describe(fe))
	}
	return domain.NewValidationError(details...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
