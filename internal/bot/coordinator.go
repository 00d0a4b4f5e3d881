// Package bot orchestrates inbound message events: session loading,
// dialogue routing, effect execution and reply delivery.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sehatlabs/sehat/internal/command"
	"github.com/sehatlabs/sehat/internal/dialog"
	"github.com/sehatlabs/sehat/internal/domain"
	"github.com/sehatlabs/sehat/internal/genai"
	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
	"github.com/sehatlabs/sehat/internal/store"
	"github.com/sehatlabs/sehat/internal/transport"
)

const recentReadingsLimit = 5

// Coordinator processes inbound events end to end.
type Coordinator struct {
	sessions    session.Store
	repo        store.Repository
	messenger   transport.Messenger
	generator   genai.Generator
	defaultLang domain.Language

	// One mutex per phone number keeps same-sender events ordered while
	// distinct senders proceed in parallel.
	locks sync.Map
}

// NewCoordinator wires the coordinator's collaborators.
func NewCoordinator(sessions session.Store, repo store.Repository, messenger transport.Messenger, generator genai.Generator, defaultLang domain.Language) *Coordinator {
	return &Coordinator{
		sessions:    sessions,
		repo:        repo,
		messenger:   messenger,
		generator:   generator,
		defaultLang: defaultLang,
	}
}

func (c *Coordinator) phoneLock(phoneNumber string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(phoneNumber, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// lockPhones locks the per-phone mutexes for a and b (b may be empty or
// equal to a) in sorted order, so two handlers can never hold the pair in
// opposite orders. The returned func releases whatever was taken.
func (c *Coordinator) lockPhones(a, b string) func() {
	if b == "" || b == a {
		mu := c.phoneLock(a)
		mu.Lock()
		return mu.Unlock
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	fmu, smu := c.phoneLock(first), c.phoneLock(second)
	fmu.Lock()
	smu.Lock()
	return func() {
		smu.Unlock()
		fmu.Unlock()
	}
}

// Process handles one inbound event: load session, route, persist, reply.
// The returned error is non-nil only for unrecoverable internal errors
// (session-integrity violations); collaborator failures degrade to
// localized fallback replies.
func (c *Coordinator) Process(ctx context.Context, ev InboundEvent) error {
	phone := NormalizePhone(ev.From)
	if phone == "" {
		return fmt.Errorf("event has no usable sender id: %q", ev.From)
	}

	// A caregiver command touches a second session, so resolve its target
	// up front and take both phone locks in one ordered acquisition.
	var px *proxyCall
	if target, inner, ok := command.ParseProxy(ev.Body); ok {
		px = &proxyCall{target: target, inner: inner}
		px.user, px.lookupErr = c.repo.FindUserByName(ctx, target)
	}

	targetPhone := ""
	if px != nil && px.user != nil {
		targetPhone = px.user.PhoneNumber
	}
	unlock := c.lockPhones(phone, targetPhone)
	defer unlock()

	sess := c.sessions.GetOrCreate(phone)

	user, err := c.repo.FindUserByPhone(ctx, phone)
	if err != nil {
		// Store unreachable: reply with a safe fallback and leave the
		// session untouched so the user can retry the same input.
		slog.Error("User lookup failed", "phone", phone, "error", err)
		c.deliver(ctx, phone, reply.Render(reply.TplGenericError, sess.ReplyLanguage(c.defaultLang), nil))
		return nil
	}

	// A known user's fresh session goes straight to operational mode,
	// inheriting their stored language.
	if user != nil && sess.CurrentState == session.StateStart {
		sess.CurrentState = session.StateIdle
		sess.RegistrationInProgress = false
		sess.Language = user.PreferredLanguage()
	}

	var text string
	var cleared bool
	if user == nil {
		text, err = c.runRegistration(ctx, sess, ev)
	} else {
		text, cleared, err = c.runOperational(ctx, user, sess, ev.Body, px)
	}
	if err != nil {
		return err
	}

	// Effect failures restore a snapshot inside the run* helpers; an
	// update failure here is a programming-contract violation.
	if !cleared {
		if _, err := c.sessions.Update(sess); err != nil {
			return fmt.Errorf("persist session for %s: %w", phone, err)
		}
	}

	c.deliver(ctx, phone, text)
	return nil
}

// runRegistration drives the registration sub-flow and, on completion,
// issues the create-user intent.
func (c *Coordinator) runRegistration(ctx context.Context, sess *session.Session, ev InboundEvent) (string, error) {
	snapshot := snapshotSession(sess)
	d := dialog.AdvanceRegistration(sess, ev.Body)

	if d.CompleteRegistration != nil {
		now := time.Now()
		newUser := &domain.User{
			UserID:      uuid.NewString(),
			PhoneNumber: sess.PhoneNumber,
			Name:        d.CompleteRegistration.Name,
			Age:         d.CompleteRegistration.Age,
			Language:    sess.ReplyLanguage(c.defaultLang),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.repo.CreateUser(ctx, newUser); err != nil {
			slog.Error("Create user failed", "phone", sess.PhoneNumber, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, sess.ReplyLanguage(c.defaultLang), nil), nil
		}
		slog.Info("User registered", "phone", sess.PhoneNumber, "user_id", newUser.UserID)
	}

	return reply.Render(d.TemplateID, sess.ReplyLanguage(c.defaultLang), d.Params), nil
}

// runOperational dispatches a registered user's message, handling a
// pre-resolved caregiver proxy command first.
func (c *Coordinator) runOperational(ctx context.Context, user *domain.User, sess *session.Session, body string, px *proxyCall) (string, bool, error) {
	lang := sess.ReplyLanguage(c.defaultLang)

	if px != nil {
		return c.runProxy(ctx, lang, sess.PhoneNumber, px)
	}

	snapshot := snapshotSession(sess)
	d := command.Dispatch(sess, body)
	text := c.runEffects(ctx, user, sess, snapshot, &d, lang)

	if d.ClearSession {
		c.sessions.Clear(sess.PhoneNumber)
	}
	return text, d.ClearSession, nil
}

// proxyCall is a caregiver command whose target user was looked up before
// the phone locks were taken.
type proxyCall struct {
	target    string
	inner     string
	user      *domain.User
	lookupErr error
}

// runProxy dispatches the inner command against the target's own session
// and user context; Process already holds both phone locks. The caller's
// session is never altered, and the cleared flag is set only when the
// target turns out to be the caller themselves.
func (c *Coordinator) runProxy(ctx context.Context, callerLang domain.Language, callerPhone string, px *proxyCall) (string, bool, error) {
	if px.lookupErr != nil {
		slog.Error("Proxy target lookup failed", "target", px.target, "error", px.lookupErr)
		return reply.Render(reply.TplGenericError, callerLang, nil), false, nil
	}
	if px.user == nil {
		return reply.Render(reply.TplProxyNotFound, callerLang, map[string]string{"target": px.target}), false, nil
	}

	targetSess := c.sessions.GetOrCreate(px.user.PhoneNumber)
	if targetSess.CurrentState == session.StateStart {
		targetSess.CurrentState = session.StateIdle
		targetSess.Language = px.user.PreferredLanguage()
	}

	snapshot := snapshotSession(targetSess)
	d := command.Dispatch(targetSess, px.inner)
	text := c.runEffects(ctx, px.user, targetSess, snapshot, &d, callerLang)

	if d.ClearSession {
		c.sessions.Clear(targetSess.PhoneNumber)
	} else if _, err := c.sessions.Update(targetSess); err != nil {
		return "", false, fmt.Errorf("persist proxy session for %s: %w", targetSess.PhoneNumber, err)
	}

	cleared := d.ClearSession && px.user.PhoneNumber == callerPhone
	return reply.Render(reply.TplProxyPrefix, callerLang, map[string]string{
		"target": px.user.Name,
		"text":   text,
	}), cleared, nil
}

// runEffects executes the directive's side effect, adjusting the directive
// on effect-specific outcomes (empty lists, bad picks), and renders the
// final reply text. On collaborator failure the session snapshot is
// restored so the user can retry.
func (c *Coordinator) runEffects(ctx context.Context, user *domain.User, sess *session.Session, snapshot sessionSnapshot, d *dialog.Directive, lang domain.Language) string {
	switch {
	case d.SaveMedication != nil:
		now := time.Now()
		med := &domain.Medication{
			MedicationID: uuid.NewString(),
			UserID:       user.UserID,
			Name:         d.SaveMedication.Name,
			Dosage:       d.SaveMedication.Dosage,
			Schedule:     d.SaveMedication.Schedule,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := c.repo.AddMedication(ctx, med); err != nil {
			slog.Error("Save medication failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}

	case d.SaveReading != "":
		if err := c.addRecord(ctx, user, domain.RecordReading, d.SaveReading); err != nil {
			slog.Error("Save reading failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}

	case d.LogDose:
		if err := c.addRecord(ctx, user, domain.RecordDoseTaken, "dose taken"); err != nil {
			slog.Error("Log dose failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}

	case d.DeleteIndex != nil:
		meds, err := c.repo.ListMedications(ctx, user.UserID)
		if err != nil {
			slog.Error("List medications failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}
		idx := *d.DeleteIndex
		if idx < 1 || idx > len(meds) {
			sess.CurrentState = session.StateMedicationDelete
			return reply.Render(reply.TplMedPickInvalid, lang, nil)
		}
		med := meds[idx-1]
		if err := c.repo.DeleteMedication(ctx, med.MedicationID); err != nil {
			slog.Error("Delete medication failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}
		d.Params = map[string]string{"name": med.Name}

	case d.ListMedications:
		meds, err := c.repo.ListMedications(ctx, user.UserID)
		if err != nil {
			slog.Error("List medications failed", "user_id", user.UserID, "error", err)
			restoreSession(sess, snapshot)
			return reply.Render(reply.TplGenericError, lang, nil)
		}
		if len(meds) == 0 {
			sess.CurrentState = session.StateIdle
			return reply.Render(reply.TplMedListEmpty, lang, nil)
		}
		d.Params = map[string]string{"list": formatMedList(meds)}

	case d.CheckInteractions:
		return c.checkInteractions(ctx, user, lang)

	case d.Recommend:
		return c.recommend(ctx, user, lang)
	}

	if d.Text != "" {
		return d.Text
	}
	return reply.Render(d.TemplateID, lang, d.Params)
}

func (c *Coordinator) addRecord(ctx context.Context, user *domain.User, kind domain.HealthRecordKind, value string) error {
	return c.repo.AddHealthRecord(ctx, &domain.HealthRecord{
		RecordID:   uuid.NewString(),
		UserID:     user.UserID,
		Kind:       kind,
		Value:      value,
		RecordedAt: time.Now(),
	})
}

func (c *Coordinator) checkInteractions(ctx context.Context, user *domain.User, lang domain.Language) string {
	meds, err := c.repo.ListMedications(ctx, user.UserID)
	if err != nil {
		slog.Error("List medications failed", "user_id", user.UserID, "error", err)
		return reply.Render(reply.TplInteractionsFallback, lang, nil)
	}
	if len(meds) == 0 {
		return reply.Render(reply.TplMedListEmpty, lang, nil)
	}

	report, err := c.generator.CheckInteractions(ctx, meds, lang)
	if err != nil {
		slog.Warn("Interaction check degraded to fallback", "user_id", user.UserID, "error", err)
		return reply.Render(reply.TplInteractionsFallback, lang, nil)
	}
	if !report.HasInteractions {
		if report.Summary != "" {
			return report.Summary
		}
		return reply.Render(reply.TplInteractionsNone, lang, nil)
	}

	var b strings.Builder
	b.WriteString(report.Summary)
	for _, item := range report.Interactions {
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

func (c *Coordinator) recommend(ctx context.Context, user *domain.User, lang domain.Language) string {
	meds, err := c.repo.ListMedications(ctx, user.UserID)
	if err != nil {
		slog.Error("List medications failed", "user_id", user.UserID, "error", err)
		return reply.Render(reply.TplRecommendFallback, lang, nil)
	}
	readings, err := c.repo.RecentHealthRecords(ctx, user.UserID, recentReadingsLimit)
	if err != nil {
		slog.Warn("Recent readings lookup failed, recommending without them", "user_id", user.UserID, "error", err)
		readings = nil
	}

	text, err := c.generator.Recommend(ctx, user, meds, readings, lang)
	if err != nil || text == "" {
		slog.Warn("Recommendation degraded to fallback", "user_id", user.UserID, "error", err)
		return reply.Render(reply.TplRecommendFallback, lang, nil)
	}
	return text
}

func (c *Coordinator) deliver(ctx context.Context, phone, text string) {
	if text == "" {
		text = reply.Render(reply.TplGenericError, c.defaultLang, nil)
	}
	if err := c.messenger.SendMessage(ctx, phone, text); err != nil {
		slog.Error("Reply delivery failed", "phone", phone, "error", err)
	}
}

func formatMedList(meds []*domain.Medication) string {
	var b strings.Builder
	for i, med := range meds {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s, %s, %s", i+1, med.Name, med.Dosage, med.Schedule)
	}
	return b.String()
}

// sessionSnapshot captures the mutable parts of a session so a failed
// collaborator call can roll the conversation back to its pre-call state.
type sessionSnapshot struct {
	state        session.State
	registering  bool
	language     domain.Language
	registration *session.RegistrationDraft
	medication   *session.MedicationDraft
}

func snapshotSession(s *session.Session) sessionSnapshot {
	snap := sessionSnapshot{
		state:       s.CurrentState,
		registering: s.RegistrationInProgress,
		language:    s.Language,
	}
	if s.Registration != nil {
		copied := *s.Registration
		snap.registration = &copied
	}
	if s.Medication != nil {
		copied := *s.Medication
		snap.medication = &copied
	}
	return snap
}

func restoreSession(s *session.Session, snap sessionSnapshot) {
	s.CurrentState = snap.state
	s.RegistrationInProgress = snap.registering
	s.Language = snap.language
	s.Registration = snap.registration
	s.Medication = snap.medication
}
