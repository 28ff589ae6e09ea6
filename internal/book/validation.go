package book

import (
	"fmt"
	"mime/multipart"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input is the client-supplied part of a create or update request.
type Input struct {
	Title       string                `json:"title" validate:"required"`
	Author      string                `json:"author" validate:"required"`
	PublishYear int                   `json:"publishYear" validate:"required"`
	Image       *multipart.FileHeader `json:"-" validate:"-"`

	// malformed lists fields the decoder could not convert.
	malformed []FieldError
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (in Input) normalized() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	return in
}

// validateInput checks the required fields and reports each one that fails.
func validateInput(in Input) error {
	out := &ValidationError{}
	reported := make(map[string]bool, len(in.malformed))
	for _, fe := range in.malformed {
		out.Fields = append(out.Fields, fe)
		reported[fe.Field] = true
	}

	var verrs validator.ValidationErrors
	if err := validate.Struct(in); err != nil {
		var ok bool
		if verrs, ok = err.(validator.ValidationErrors); !ok {
			return fmt.Errorf("validate book input: %w", err)
		}
	}

	for _, fe := range verrs {
		if reported[fe.Field()] {
			continue
		}
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fe.Field())
		default:
			message = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message})
	}
	if len(out.Fields) == 0 {
		return nil
	}
	return out
}
