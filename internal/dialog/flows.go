package dialog

import (
	"strconv"
	"strings"

	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
)

// InFlow reports whether the state belongs to an operational sub-flow
// driven by AdvanceFlow rather than the command dispatcher.
func InFlow(state session.State) bool {
	switch state {
	case session.StateMedicationAddName,
		session.StateMedicationDosage,
		session.StateMedicationTimes,
		session.StateMedicationDelete,
		session.StateHealthLogValue:
		return true
	default:
		return false
	}
}

// AdvanceFlow runs one step of an operational sub-flow (medication add,
// medication delete, health reading). Invalid input re-prompts without
// discarding the draft. The returned directive's NextState is already
// applied to the session.
func AdvanceFlow(s *session.Session, input string) Directive {
	input = strings.TrimSpace(input)

	var d Directive
	switch s.CurrentState {
	case session.StateMedicationAddName:
		if input == "" {
			d = directive(reply.TplMedFieldRequired, session.StateMedicationAddName)
			break
		}
		s.Medication = &session.MedicationDraft{Name: input}
		d = directiveWithParams(reply.TplMedAskDosage, session.StateMedicationDosage, map[string]string{"name": input})

	case session.StateMedicationDosage:
		if input == "" || s.Medication == nil {
			d = directive(reply.TplMedFieldRequired, s.CurrentState)
			break
		}
		s.Medication.Dosage = input
		d = directive(reply.TplMedAskSchedule, session.StateMedicationTimes)

	case session.StateMedicationTimes:
		if input == "" || s.Medication == nil {
			d = directive(reply.TplMedFieldRequired, s.CurrentState)
			break
		}
		s.Medication.Schedule = input
		draft := *s.Medication
		s.Medication = nil
		d = directiveWithParams(reply.TplMedSaved, session.StateIdle, map[string]string{
			"name":     draft.Name,
			"dosage":   draft.Dosage,
			"schedule": draft.Schedule,
		})
		d.SaveMedication = &draft

	case session.StateMedicationDelete:
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 {
			d = directive(reply.TplMedPickInvalid, session.StateMedicationDelete)
			break
		}
		d = directive(reply.TplMedDeleted, session.StateIdle)
		d.DeleteIndex = &idx

	case session.StateHealthLogValue:
		if input == "" {
			d = directive(reply.TplHealthAsk, session.StateHealthLogValue)
			break
		}
		d = directiveWithParams(reply.TplHealthSaved, session.StateIdle, map[string]string{"value": input})
		d.SaveReading = input

	default:
		d = directive(reply.TplGenericError, s.CurrentState)
	}

	s.CurrentState = d.NextState
	return d
}
