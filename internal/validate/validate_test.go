package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentification(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"four digits", "1234", true},
		{"eleven digits", "12345678901", true},
		{"typical id", "12345678", true},
		{"empty", "", false},
		{"three digits", "123", false},
		{"twelve digits", "123456789012", false},
		{"letters", "12ab56", false},
		{"spaces", "1234 5678", false},
		{"negative", "-1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Identification(tt.input)
			if tt.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
				assert.Equal(t, "identificacion", err.Field)
				assert.NotEmpty(t, err.Reason)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "Maria Perez", true},
		{"accents and enie", "María Pérez Muñoz", true},
		{"single letter", "A", true},
		{"hundred chars", strings.Repeat("a", 100), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 101), false},
		{"digits", "Maria 123", false},
		{"punctuation", "Maria-Perez", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FullName(tt.input)
			if tt.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"mobile", "3001234567", true},
		{"landline prefix", "6012345678", true},
		{"empty", "", false},
		{"nine digits", "300123456", false},
		{"eleven digits", "30012345678", false},
		{"wrong first digit", "1001234567", false},
		{"letters", "300123456a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Phone(tt.input)
			if tt.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple", "maria@example.com", true},
		{"subdomain", "maria.perez@mail.example.co", true},
		{"plus tag", "maria+tag@example.com", true},
		{"empty", "", false},
		{"no at", "maria.example.com", false},
		{"no tld", "maria@example", false},
		{"short tld", "maria@example.c", false},
		{"spaces", "maria @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.input)
			if tt.valid {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}

func TestAllCollectsEveryFailure(t *testing.T) {
	errs := All(Fields{
		Identification: "12",
		FullName:       "",
		Phone:          "999",
		Email:          "nope",
	})
	assert.Len(t, errs, 4)

	fields := make([]string, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, err.Field)
	}
	assert.ElementsMatch(t, []string{"identificacion", "nombre", "telefono", "email"}, fields)
}

func TestAllValidFields(t *testing.T) {
	errs := All(Fields{
		Identification: "12345678",
		FullName:       "María Pérez",
		Phone:          "3001234567",
		Email:          "maria@example.com",
	})
	assert.Empty(t, errs)
}
