package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sehatlabs/sehat/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		age INTEGER NOT NULL,
		language TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_name ON users(name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS medications (
		medication_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		schedule TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_medications_user ON medications(user_id);

	CREATE TABLE IF NOT EXISTS health_records (
		record_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(user_id),
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_health_records_user ON health_records(user_id, recorded_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const userColumns = `user_id, phone_number, name, age, language, created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.UserID, &user.PhoneNumber, &user.Name, &user.Age,
		&user.Language, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

// FindUserByPhone retrieves a user by phone number.
func (s *SQLiteStore) FindUserByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, phoneNumber))
}

// FindUserByName retrieves a user by name, case-insensitively.
func (s *SQLiteStore) FindUserByName(ctx context.Context, name string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = ? COLLATE NOCASE LIMIT 1`
	return scanUser(s.db.QueryRowContext(ctx, query, name))
}

// CreateUser persists a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, phone_number, name, age, language, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.PhoneNumber, user.Name, user.Age, user.Language,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListMedications returns the user's medications, oldest first.
func (s *SQLiteStore) ListMedications(ctx context.Context, userID string) ([]*domain.Medication, error) {
	query := `
		SELECT medication_id, user_id, name, dosage, schedule, created_at, updated_at
		FROM medications WHERE user_id = ? ORDER BY created_at, medication_id`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	defer rows.Close()

	var meds []*domain.Medication
	for rows.Next() {
		var med domain.Medication
		var createdAt, updatedAt int64
		if err := rows.Scan(&med.MedicationID, &med.UserID, &med.Name, &med.Dosage, &med.Schedule, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan medication row: %w", err)
		}
		med.CreatedAt = time.Unix(createdAt, 0)
		med.UpdatedAt = time.Unix(updatedAt, 0)
		meds = append(meds, &med)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate medication rows: %w", err)
	}
	return meds, nil
}

// AddMedication persists a new medication.
func (s *SQLiteStore) AddMedication(ctx context.Context, med *domain.Medication) error {
	query := `
		INSERT INTO medications (medication_id, user_id, name, dosage, schedule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		med.MedicationID, med.UserID, med.Name, med.Dosage, med.Schedule,
		med.CreatedAt.Unix(), med.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

// DeleteMedication removes a medication by id.
func (s *SQLiteStore) DeleteMedication(ctx context.Context, medicationID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM medications WHERE medication_id = ?`, medicationID); err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	return nil
}

// AddHealthRecord persists a health record entry.
func (s *SQLiteStore) AddHealthRecord(ctx context.Context, rec *domain.HealthRecord) error {
	query := `
		INSERT INTO health_records (record_id, user_id, kind, value, recorded_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.RecordID, rec.UserID, rec.Kind, rec.Value, rec.RecordedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert health record: %w", err)
	}
	return nil
}

// RecentHealthRecords returns up to limit records, newest first.
func (s *SQLiteStore) RecentHealthRecords(ctx context.Context, userID string, limit int) ([]*domain.HealthRecord, error) {
	query := `
		SELECT record_id, user_id, kind, value, recorded_at
		FROM health_records WHERE user_id = ?
		ORDER BY recorded_at DESC, record_id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query health records: %w", err)
	}
	defer rows.Close()

	var recs []*domain.HealthRecord
	for rows.Next() {
		var rec domain.HealthRecord
		var recordedAt int64
		if err := rows.Scan(&rec.RecordID, &rec.UserID, &rec.Kind, &rec.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan health record row: %w", err)
		}
		rec.RecordedAt = time.Unix(recordedAt, 0)
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate health record rows: %w", err)
	}
	return recs, nil
}
