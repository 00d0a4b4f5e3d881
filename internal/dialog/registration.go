package dialog

import (
	"strconv"
	"strings"

	"github.com/sehatlabs/sehat/internal/domain"
	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
)

const (
	minAge = 1
	maxAge = 120
)

// AdvanceRegistration runs one step of the registration sub-flow. It
// mutates the session's captured fields (language, draft) but never loses
// them on invalid input; only valid input moves the state forward. The
// returned directive's NextState is already applied to the session.
func AdvanceRegistration(s *session.Session, input string) Directive {
	s.RegistrationInProgress = true
	if s.Registration == nil {
		s.Registration = &session.RegistrationDraft{}
	}

	var d Directive
	switch s.CurrentState {
	case session.StateStart:
		d = directive(reply.TplWelcome, session.StateRegistrationStart)

	case session.StateRegistrationStart:
		d = directive(reply.TplLanguageSelect, session.StateRegistrationLanguage)

	case session.StateRegistrationLanguage:
		lang, ok := domain.ParseLanguage(input)
		if !ok {
			d = directive(reply.TplLanguageInvalid, session.StateRegistrationLanguage)
			break
		}
		s.Language = lang
		d = directive(reply.TplAskAge, session.StateRegistrationAge)

	case session.StateRegistrationAge:
		age, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || age < minAge || age > maxAge {
			d = directive(reply.TplAgeInvalid, session.StateRegistrationAge)
			break
		}
		s.Registration.Age = age
		d = directive(reply.TplAskName, session.StateRegistrationName)

	case session.StateRegistrationName:
		name := strings.TrimSpace(input)
		if name == "" {
			d = directive(reply.TplNameInvalid, session.StateRegistrationName)
			break
		}
		s.Registration.Name = name
		d = directiveWithParams(reply.TplRegistrationDone, session.StateIdle, map[string]string{"name": name})
		d.CompleteRegistration = &Registration{
			Name: s.Registration.Name,
			Age:  s.Registration.Age,
		}

	default:
		d = directive(reply.TplGenericError, s.CurrentState)
	}

	s.CurrentState = d.NextState
	if d.CompleteRegistration != nil {
		s.RegistrationInProgress = false
		s.Registration = nil
	}
	return d
}
