// Package session provides the per-phone-number conversation session store.
package session

import (
	"time"

	"github.com/sehatlabs/sehat/internal/domain"
)

// State identifies where a conversation currently is.
type State string

const (
	// StateStart is the initial state of a brand-new session.
	StateStart State = "START"

	// Registration sub-flow states.
	StateRegistrationStart    State = "REGISTRATION_START"
	StateRegistrationLanguage State = "REGISTRATION_LANGUAGE"
	StateRegistrationAge      State = "REGISTRATION_AGE"
	StateRegistrationName     State = "REGISTRATION_NAME"
	StateRegistrationComplete State = "REGISTRATION_COMPLETE"

	// Operational states.
	StateIdle              State = "IDLE"
	StateMedicationAddName State = "MEDICATION_ADD_START"
	StateMedicationDosage  State = "MEDICATION_ADD_DOSAGE"
	StateMedicationTimes   State = "MEDICATION_ADD_SCHEDULE"
	StateMedicationDelete  State = "MEDICATION_DELETE_PICK"
	StateHealthLogValue    State = "HEALTH_LOG_VALUE"
)

// RegistrationDraft holds fields captured so far during registration.
type RegistrationDraft struct {
	Age  int
	Name string
}

// MedicationDraft holds a partially entered medication.
type MedicationDraft struct {
	Name     string
	Dosage   string
	Schedule string
}

// Session is the ephemeral conversation state for one phone number.
type Session struct {
	ID                     string
	PhoneNumber            string
	CurrentState           State
	RegistrationInProgress bool
	Language               domain.Language // empty until chosen or inherited
	Registration           *RegistrationDraft
	Medication             *MedicationDraft
	CreatedAt              time.Time
	UpdatedAt              time.Time
	ExpiresAt              time.Time
}

// Expired reports whether the session's TTL has elapsed at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// ReplyLanguage returns the language to render replies in, falling back
// to def when none has been chosen yet.
func (s *Session) ReplyLanguage(def domain.Language) domain.Language {
	if s.Language.Valid() {
		return s.Language
	}
	return def
}
