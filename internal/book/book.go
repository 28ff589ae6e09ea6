package book

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrPersistence wraps failures of the backing store.
var ErrPersistence = errors.New("book persistence failed")

// Book represents a book record.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	PublishYear int       `json:"publishYear"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Fields are the values of a new record. ImageURL is nil when no image was uploaded.
type Fields struct {
	Title       string
	Author      string
	PublishYear int
	ImageURL    *string
}

// Patch lists the fields an update changes; nil fields keep their stored value.
type Patch struct {
	Title       *string
	Author      *string
	PublishYear *int
	ImageURL    *string
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports missing or malformed required fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("invalid book fields: %s", strings.Join(names, ", "))
}

// checkFields is the repository-side guard on required fields.
func checkFields(f Fields) error {
	var errs []FieldError
	if strings.TrimSpace(f.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(f.Author) == "" {
		errs = append(errs, FieldError{Field: "author", Message: "author is required"})
	}
	if f.PublishYear == 0 {
		errs = append(errs, FieldError{Field: "publishYear", Message: "publishYear is required"})
	}
	if f.ImageURL != nil && *f.ImageURL == "" {
		errs = append(errs, FieldError{Field: "imageUrl", Message: "imageUrl must be a URL when present"})
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
