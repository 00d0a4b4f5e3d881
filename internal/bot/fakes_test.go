package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sehatlabs/sehat/internal/domain"
	"github.com/sehatlabs/sehat/internal/genai"
)

var errUnavailable = errors.New("collaborator unavailable")

// fakeRepo is an in-memory store.Repository for coordinator tests.
type fakeRepo struct {
	mu           sync.Mutex
	usersByPhone map[string]*domain.User
	medsByUser   map[string][]*domain.Medication
	records      []*domain.HealthRecord
	createCalls  int

	failFind   bool
	failCreate bool
	failAddMed bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersByPhone: make(map[string]*domain.User),
		medsByUser:   make(map[string][]*domain.Medication),
	}
}

func (r *fakeRepo) FindUserByPhone(_ context.Context, phoneNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFind {
		return nil, errUnavailable
	}
	return r.usersByPhone[phoneNumber], nil
}

func (r *fakeRepo) FindUserByName(_ context.Context, name string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.usersByPhone {
		if strings.EqualFold(user.Name, name) {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreate {
		return errUnavailable
	}
	r.usersByPhone[user.PhoneNumber] = user
	return nil
}

func (r *fakeRepo) ListMedications(_ context.Context, userID string) ([]*domain.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.medsByUser[userID], nil
}

func (r *fakeRepo) AddMedication(_ context.Context, med *domain.Medication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAddMed {
		return errUnavailable
	}
	r.medsByUser[med.UserID] = append(r.medsByUser[med.UserID], med)
	return nil
}

func (r *fakeRepo) DeleteMedication(_ context.Context, medicationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, meds := range r.medsByUser {
		for i, med := range meds {
			if med.MedicationID == medicationID {
				r.medsByUser[userID] = append(meds[:i], meds[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *fakeRepo) AddHealthRecord(_ context.Context, rec *domain.HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) RecentHealthRecords(_ context.Context, userID string, limit int) ([]*domain.HealthRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var recs []*domain.HealthRecord
	for i := len(r.records) - 1; i >= 0 && len(recs) < limit; i-- {
		if r.records[i].UserID == userID {
			recs = append(recs, r.records[i])
		}
	}
	return recs, nil
}

func (r *fakeRepo) Ping(context.Context) error { return nil }

func (r *fakeRepo) Close() error { return nil }

func (r *fakeRepo) recordsFor(userID string) []*domain.HealthRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var recs []*domain.HealthRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	return recs
}

// fakeMessenger records outbound sends.
type fakeMessenger struct {
	mu    sync.Mutex
	sends []sentMessage
	fail  bool
}

type sentMessage struct {
	To   string
	Text string
}

func (m *fakeMessenger) SendMessage(_ context.Context, phoneNumber, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errUnavailable
	}
	m.sends = append(m.sends, sentMessage{To: phoneNumber, Text: text})
	return nil
}

func (m *fakeMessenger) SendMessageWithMedia(ctx context.Context, phoneNumber, text, _ string) error {
	return m.SendMessage(ctx, phoneNumber, text)
}

func (m *fakeMessenger) last() (sentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sends) == 0 {
		return sentMessage{}, false
	}
	return m.sends[len(m.sends)-1], true
}

// fakeGenerator returns canned content.
type fakeGenerator struct {
	report *genai.InteractionReport
	advice string
	fail   bool
}

func (g *fakeGenerator) CheckInteractions(context.Context, []*domain.Medication, domain.Language) (*genai.InteractionReport, error) {
	if g.fail {
		return nil, errUnavailable
	}
	return g.report, nil
}

func (g *fakeGenerator) Recommend(context.Context, *domain.User, []*domain.Medication, []*domain.HealthRecord, domain.Language) (string, error) {
	if g.fail {
		return "", errUnavailable
	}
	return g.advice, nil
}
