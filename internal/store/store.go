// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/sehatlabs/sehat/internal/domain"
)

// Repository defines the interface for persisting users, medications and
// health records.
type Repository interface {
	// FindUserByPhone retrieves a user by phone number. Returns nil
	// without error when no user exists.
	FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)

	// FindUserByName retrieves a user by name, case-insensitively.
	// Returns nil without error when no user matches.
	FindUserByName(ctx context.Context, name string) (*domain.User, error)

	// CreateUser persists a new user record.
	CreateUser(ctx context.Context, user *domain.User) error

	// ListMedications returns the user's medications, oldest first.
	ListMedications(ctx context.Context, userID string) ([]*domain.Medication, error)

	// AddMedication persists a new medication.
	AddMedication(ctx context.Context, med *domain.Medication) error

	// DeleteMedication removes a medication by id.
	DeleteMedication(ctx context.Context, medicationID string) error

	// AddHealthRecord persists a health record entry.
	AddHealthRecord(ctx context.Context, rec *domain.HealthRecord) error

	// RecentHealthRecords returns up to limit records, newest first.
	RecentHealthRecords(ctx context.Context, userID string, limit int) ([]*domain.HealthRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
