// Package domain contains core domain types for the Sehat Saathi backend.
package domain

import (
	"strings"
	"time"
)

// Language identifies a supported reply language.
type Language string

const (
	// LangEN is English.
	LangEN Language = "en"
	// LangHI is Hindi.
	LangHI Language = "hi"
)

// ParseLanguage maps a registration menu choice or keyword to a language.
// The second return value reports whether the input was recognized.
func ParseLanguage(input string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "english", "en":
		return LangEN, true
	case "2", "hindi", "hi":
		return LangHI, true
	default:
		return "", false
	}
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LangEN || l == LangHI
}

// User represents a registered user, keyed by phone number.
type User struct {
	UserID      string    `json:"user_id"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Language    Language  `json:"language"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PreferredLanguage returns the user's language, defaulting to English
// when the record predates language capture.
func (u *User) PreferredLanguage() Language {
	if u.Language.Valid() {
		return u.Language
	}
	return LangEN
}
