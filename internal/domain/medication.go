package domain

import (
	"time"
)

// Medication is a single medication on a user's list.
type Medication struct {
	MedicationID string    `json:"medication_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Schedule     string    `json:"schedule"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HealthRecordKind categorizes health record entries.
type HealthRecordKind string

const (
	// RecordReading is a free-text health reading, e.g. "bp 120/80".
	RecordReading HealthRecordKind = "reading"
	// RecordDoseTaken marks a medication dose as taken.
	RecordDoseTaken HealthRecordKind = "dose"
)

// HealthRecord is a timestamped health entry for a user.
type HealthRecord struct {
	RecordID   string           `json:"record_id"`
	UserID     string           `json:"user_id"`
	Kind       HealthRecordKind `json:"kind"`
	Value      string           `json:"value"`
	RecordedAt time.Time        `json:"recorded_at"`
}
