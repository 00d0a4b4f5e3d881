package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sehatlabs/sehat/internal/domain"
	"github.com/sehatlabs/sehat/internal/genai"
	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
)

type testEnv struct {
	coordinator *Coordinator
	sessions    *session.MemoryStore
	repo        *fakeRepo
	messenger   *fakeMessenger
	generator   *fakeGenerator
}

func newTestEnv() *testEnv {
	sessions := session.NewMemoryStore(30 * time.Minute)
	repo := newFakeRepo()
	messenger := &fakeMessenger{}
	generator := &fakeGenerator{advice: "Walk a little every day."}
	return &testEnv{
		coordinator: NewCoordinator(sessions, repo, messenger, generator, domain.LangEN),
		sessions:    sessions,
		repo:        repo,
		messenger:   messenger,
		generator:   generator,
	}
}

func (e *testEnv) send(t *testing.T, from, body string) string {
	t.Helper()
	if err := e.coordinator.Process(context.Background(), InboundEvent{From: from, Body: body}); err != nil {
		t.Fatalf("Process(%q) failed: %v", body, err)
	}
	msg, ok := e.messenger.last()
	if !ok {
		t.Fatalf("Process(%q) sent no reply", body)
	}
	return msg.Text
}

func (e *testEnv) addUser(phone, name string, lang domain.Language) *domain.User {
	user := &domain.User{
		UserID:      "user-" + name,
		PhoneNumber: phone,
		Name:        name,
		Age:         70,
		Language:    lang,
	}
	e.repo.usersByPhone[phone] = user
	return user
}

const callerPhone = "+911234567890"

func TestProcess_NewNumberStartsRegistration(t *testing.T) {
	env := newTestEnv()

	text := env.send(t, "whatsapp:"+callerPhone, "hi")
	if text != reply.Render(reply.TplWelcome, domain.LangEN, nil) {
		t.Errorf("Expected welcome reply, got %q", text)
	}

	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateRegistrationStart {
		t.Errorf("Expected state %s, got %s", session.StateRegistrationStart, sess.CurrentState)
	}

	text = env.send(t, "whatsapp:"+callerPhone, "anything")
	if text != reply.Render(reply.TplLanguageSelect, domain.LangEN, nil) {
		t.Errorf("Expected language prompt, got %q", text)
	}
}

func TestProcess_RegistrationRoundTrip(t *testing.T) {
	env := newTestEnv()

	env.send(t, callerPhone, "hi")
	env.send(t, callerPhone, "ok")

	text := env.send(t, callerPhone, "2")
	if text != reply.Render(reply.TplAskAge, domain.LangHI, nil) {
		t.Errorf("Expected Hindi age question, got %q", text)
	}

	env.send(t, callerPhone, "72")
	env.send(t, callerPhone, "Kamla")

	if env.repo.createCalls != 1 {
		t.Fatalf("Expected exactly one create-user intent, got %d", env.repo.createCalls)
	}
	user := env.repo.usersByPhone[callerPhone]
	if user == nil {
		t.Fatal("Expected user created")
	}
	if user.Name != "Kamla" || user.Age != 72 || user.Language != domain.LangHI {
		t.Errorf("Unexpected user record: %+v", user)
	}

	// Future input routes through the dispatcher, never back through
	// registration.
	text = env.send(t, callerPhone, "gibberish")
	if text != reply.Render(reply.TplMainMenu, domain.LangHI, nil) {
		t.Errorf("Expected Hindi main menu, got %q", text)
	}
	if env.repo.createCalls != 1 {
		t.Errorf("Expected no further create-user intents, got %d", env.repo.createCalls)
	}
}

func TestProcess_InvalidLanguageKeepsPrompting(t *testing.T) {
	env := newTestEnv()

	env.send(t, callerPhone, "hi")
	env.send(t, callerPhone, "ok")

	text := env.send(t, callerPhone, "banana")
	if text != reply.Render(reply.TplLanguageInvalid, domain.LangEN, nil) {
		t.Errorf("Expected language error in default language, got %q", text)
	}

	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateRegistrationLanguage {
		t.Errorf("Expected state unchanged, got %s", sess.CurrentState)
	}
}

func TestProcess_CreateUserFailureLeavesStateRetryable(t *testing.T) {
	env := newTestEnv()
	env.repo.failCreate = true

	env.send(t, callerPhone, "hi")
	env.send(t, callerPhone, "ok")
	env.send(t, callerPhone, "1")
	env.send(t, callerPhone, "72")

	text := env.send(t, callerPhone, "Kamla")
	if text != reply.Render(reply.TplGenericError, domain.LangEN, nil) {
		t.Errorf("Expected generic error, got %q", text)
	}

	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateRegistrationName {
		t.Errorf("Expected state restored for retry, got %s", sess.CurrentState)
	}
	if !sess.RegistrationInProgress {
		t.Error("Expected registration still in progress")
	}

	// Retry succeeds once the store recovers.
	env.repo.failCreate = false
	env.send(t, callerPhone, "Kamla")
	if env.repo.usersByPhone[callerPhone] == nil {
		t.Error("Expected user created on retry")
	}
}

func TestProcess_KnownUserFreshSessionGoesOperational(t *testing.T) {
	env := newTestEnv()
	env.addUser(callerPhone, "Kamla", domain.LangHI)

	text := env.send(t, callerPhone, "hello")

	if text != reply.Render(reply.TplMainMenu, domain.LangHI, nil) {
		t.Errorf("Expected Hindi menu for known user, got %q", text)
	}
	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.RegistrationInProgress {
		t.Error("Expected operational session")
	}
	if sess.CurrentState != session.StateIdle {
		t.Errorf("Expected idle state, got %s", sess.CurrentState)
	}
}

func TestProcess_MedicationAddPersists(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(callerPhone, "Kamla", domain.LangEN)

	env.send(t, callerPhone, "1")
	env.send(t, callerPhone, "Metformin")
	env.send(t, callerPhone, "500mg")
	text := env.send(t, callerPhone, "morning and night")

	meds := env.repo.medsByUser[user.UserID]
	if len(meds) != 1 {
		t.Fatalf("Expected 1 medication, got %d", len(meds))
	}
	med := meds[0]
	if med.Name != "Metformin" || med.Dosage != "500mg" || med.Schedule != "morning and night" {
		t.Errorf("Unexpected medication: %+v", med)
	}
	if !strings.Contains(text, "Metformin") {
		t.Errorf("Expected confirmation naming the medication, got %q", text)
	}
}

func TestProcess_ProxyCommand(t *testing.T) {
	env := newTestEnv()
	env.addUser(callerPhone, "Ravi", domain.LangEN)
	mom := env.addUser("+919999999999", "Mom", domain.LangHI)

	callerSess := env.sessions.GetOrCreate(callerPhone)
	callerSess.CurrentState = session.StateIdle

	text := env.send(t, callerPhone, "for:Mom taken")

	recs := env.repo.recordsFor(mom.UserID)
	if len(recs) != 1 || recs[0].Kind != domain.RecordDoseTaken {
		t.Fatalf("Expected one dose record for the target, got %+v", recs)
	}
	if len(env.repo.recordsFor("user-Ravi")) != 0 {
		t.Error("Expected no records for the caller")
	}
	if !strings.Contains(text, "Mom") {
		t.Errorf("Expected reply to name the target, got %q", text)
	}

	// Caller's own session state is untouched by the proxy dispatch.
	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateIdle {
		t.Errorf("Expected caller session unchanged, got %s", sess.CurrentState)
	}
}

func TestProcess_ProxyConcurrentWithTargetMessage(t *testing.T) {
	env := newTestEnv()
	env.addUser(callerPhone, "Ravi", domain.LangEN)
	mom := env.addUser("+919999999999", "Mom", domain.LangHI)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := env.coordinator.Process(context.Background(), InboundEvent{From: callerPhone, Body: "for:Mom taken"}); err != nil {
				t.Errorf("Proxy Process failed: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := env.coordinator.Process(context.Background(), InboundEvent{From: mom.PhoneNumber, Body: "help"}); err != nil {
				t.Errorf("Target Process failed: %v", err)
			}
		}
	}()
	wg.Wait()

	recs := env.repo.recordsFor(mom.UserID)
	if len(recs) != rounds {
		t.Errorf("Expected %d dose records, got %d", rounds, len(recs))
	}
	sess := env.sessions.GetOrCreate(mom.PhoneNumber)
	if sess.CurrentState != session.StateIdle {
		t.Errorf("Expected target session to settle in %s, got %s", session.StateIdle, sess.CurrentState)
	}
}

func TestProcess_MutualProxiesComplete(t *testing.T) {
	env := newTestEnv()
	ravi := env.addUser(callerPhone, "Ravi", domain.LangEN)
	mom := env.addUser("+919999999999", "Mom", domain.LangHI)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := env.coordinator.Process(context.Background(), InboundEvent{From: ravi.PhoneNumber, Body: "for:Mom taken"}); err != nil {
				t.Errorf("Process for Ravi failed: %v", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := env.coordinator.Process(context.Background(), InboundEvent{From: mom.PhoneNumber, Body: "for:Ravi taken"}); err != nil {
				t.Errorf("Process for Mom failed: %v", err)
			}
		}
	}()
	wg.Wait()

	if got := len(env.repo.recordsFor(mom.UserID)); got != rounds {
		t.Errorf("Expected %d dose records for Mom, got %d", rounds, got)
	}
	if got := len(env.repo.recordsFor(ravi.UserID)); got != rounds {
		t.Errorf("Expected %d dose records for Ravi, got %d", rounds, got)
	}
}

func TestProcess_ProxyUnknownTarget(t *testing.T) {
	env := newTestEnv()
	env.addUser(callerPhone, "Ravi", domain.LangEN)

	text := env.send(t, callerPhone, "for:Uncle taken")

	want := reply.Render(reply.TplProxyNotFound, domain.LangEN, map[string]string{"target": "Uncle"})
	if text != want {
		t.Errorf("Expected not-found reply, got %q", text)
	}
	if len(env.repo.records) != 0 {
		t.Error("Expected no records logged")
	}
}

func TestProcess_InteractionCheckFallback(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(callerPhone, "Kamla", domain.LangEN)
	env.repo.medsByUser[user.UserID] = []*domain.Medication{
		{MedicationID: "m1", UserID: user.UserID, Name: "Metformin", Dosage: "500mg", Schedule: "morning"},
	}
	env.generator.fail = true

	text := env.send(t, callerPhone, "4")

	if text != reply.Render(reply.TplInteractionsFallback, domain.LangEN, nil) {
		t.Errorf("Expected localized fallback, got %q", text)
	}
	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateIdle {
		t.Errorf("Expected session usable after fallback, got %s", sess.CurrentState)
	}
}

func TestProcess_InteractionCheckSummary(t *testing.T) {
	env := newTestEnv()
	user := env.addUser(callerPhone, "Kamla", domain.LangEN)
	env.repo.medsByUser[user.UserID] = []*domain.Medication{
		{MedicationID: "m1", UserID: user.UserID, Name: "Metformin", Dosage: "500mg", Schedule: "morning"},
		{MedicationID: "m2", UserID: user.UserID, Name: "Aspirin", Dosage: "75mg", Schedule: "night"},
	}
	env.generator.report = &genai.InteractionReport{
		HasInteractions: true,
		Interactions:    []string{"Metformin + Aspirin: monitor blood sugar"},
		Summary:         "One possible interaction found.",
	}

	text := env.send(t, callerPhone, "interactions")

	if !strings.Contains(text, "One possible interaction found.") {
		t.Errorf("Expected summary in reply, got %q", text)
	}
	if !strings.Contains(text, "Metformin + Aspirin") {
		t.Errorf("Expected interaction detail in reply, got %q", text)
	}
}

func TestProcess_ResetClearsSession(t *testing.T) {
	env := newTestEnv()
	env.addUser(callerPhone, "Kamla", domain.LangEN)

	env.send(t, callerPhone, "hello")
	if env.sessions.Len() != 1 {
		t.Fatalf("Expected 1 session, got %d", env.sessions.Len())
	}

	env.send(t, callerPhone, "reset")
	if env.sessions.Len() != 0 {
		t.Errorf("Expected session cleared, got %d", env.sessions.Len())
	}
}

func TestProcess_SendFailureDoesNotFail(t *testing.T) {
	env := newTestEnv()
	env.messenger.fail = true

	err := env.coordinator.Process(context.Background(), InboundEvent{From: callerPhone, Body: "hi"})
	if err != nil {
		t.Errorf("Expected delivery failure to be swallowed, got %v", err)
	}
}

func TestProcess_StoreLookupFailureLeavesSessionUnchanged(t *testing.T) {
	env := newTestEnv()
	env.send(t, callerPhone, "hi")
	env.repo.failFind = true

	text := env.send(t, callerPhone, "anything")

	if text != reply.Render(reply.TplGenericError, domain.LangEN, nil) {
		t.Errorf("Expected generic fallback, got %q", text)
	}
	sess := env.sessions.GetOrCreate(callerPhone)
	if sess.CurrentState != session.StateRegistrationStart {
		t.Errorf("Expected state unchanged for retry, got %s", sess.CurrentState)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whatsapp:+911234567890", "+911234567890"},
		{"+91 12345 67890", "+911234567890"},
		{"whatsapp:91-1234567890", "911234567890"},
		{"  +911234567890  ", "+911234567890"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
