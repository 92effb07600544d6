// Package validate checks the syntactic shape of customer-supplied fields.
// Every check is stateless and returns a nil *FieldError on success.
package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// FieldError describes why a single field failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Fields is the full set of registration inputs.
type Fields struct {
	Identification string
	FullName       string
	Phone          string
	Email          string
}

var (
	identificationRe = regexp.MustCompile(`^[0-9]{4,11}$`)
	fullNameRe       = regexp.MustCompile(`^[a-zA-ZáéíóúüÁÉÍÓÚÜñÑ\s]+$`)
	phoneRe          = regexp.MustCompile(`^[36][0-9]{9}$`)
	emailRe          = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Identification accepts 4 to 11 numeric digits.
func Identification(s string) *FieldError {
	if s == "" {
		return &FieldError{Field: "identificacion", Reason: "la identificación no puede estar vacía"}
	}
	if !identificationRe.MatchString(s) {
		return &FieldError{Field: "identificacion", Reason: "la identificación debe tener entre 4 y 11 dígitos numéricos"}
	}
	return nil
}

// FullName accepts 1 to 100 characters: letters, spaces, accents and ñ.
func FullName(s string) *FieldError {
	if s == "" {
		return &FieldError{Field: "nombre", Reason: "el nombre no puede estar vacío"}
	}
	if utf8.RuneCountInString(s) > 100 {
		return &FieldError{Field: "nombre", Reason: "el nombre no puede tener más de 100 caracteres"}
	}
	if !fullNameRe.MatchString(s) {
		return &FieldError{Field: "nombre", Reason: "el nombre solo puede contener letras, espacios y tildes"}
	}
	return nil
}

// Phone accepts exactly 10 digits starting with 3 or 6.
func Phone(s string) *FieldError {
	if s == "" {
		return &FieldError{Field: "telefono", Reason: "el teléfono no puede estar vacío"}
	}
	if !phoneRe.MatchString(s) {
		return &FieldError{Field: "telefono", Reason: "el teléfono debe tener exactamente 10 dígitos y empezar por 3 o 6"}
	}
	return nil
}

// Email accepts a local@domain.tld shape.
func Email(s string) *FieldError {
	if s == "" {
		return &FieldError{Field: "email", Reason: "el email no puede estar vacío"}
	}
	if !emailRe.MatchString(s) {
		return &FieldError{Field: "email", Reason: "el formato del email no es válido"}
	}
	return nil
}

// All runs every check and collects each failure so the caller can report
// every invalid field in one pass. It never short-circuits.
func All(f Fields) []*FieldError {
	var errs []*FieldError
	if err := Identification(f.Identification); err != nil {
		errs = append(errs, err)
	}
	if err := FullName(f.FullName); err != nil {
		errs = append(errs, err)
	}
	if err := Phone(f.Phone); err != nil {
		errs = append(errs, err)
	}
	if err := Email(f.Email); err != nil {
		errs = append(errs, err)
	}
	return errs
}
