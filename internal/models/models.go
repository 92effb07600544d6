package models

import "time"

// User represents a registered customer. Identification is the natural key:
// a numeric document number between 4 and 11 digits.
type User struct {
	Identification string    `json:"identification"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationRecord is one exchanged message, appended for analytics.
// Identification is empty for anonymous sessions.
type ConversationRecord struct {
	ID             int64     `json:"id"`
	Identification string    `json:"identification,omitempty"`
	Message        string    `json:"message"`
	Reply          string    `json:"reply"`
	Category       string    `json:"category,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationData holds the fields collected step by step while a new
// customer signs up. It lives only inside a session.
type RegistrationData struct {
	Identification string `json:"identification"`
	FullName       string `json:"full_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}
