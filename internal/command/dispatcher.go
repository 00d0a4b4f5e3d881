// Package command maps free-text operational commands to dialogue actions.
package command

import (
	"strings"

	"github.com/sehatlabs/sehat/internal/dialog"
	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
)

// Action identifies one dispatchable command.
type Action string

const (
	ActionAddMedication     Action = "add_medication"
	ActionListMedications   Action = "list_medications"
	ActionDeleteMedication  Action = "delete_medication"
	ActionCheckInteractions Action = "check_interactions"
	ActionRecommend         Action = "recommend"
	ActionLogHealth         Action = "log_health"
	ActionDoseTaken         Action = "dose_taken"
	ActionHelp              Action = "help"
	ActionReset             Action = "reset"
)

// aliases maps normalized input to its action. Menu numbers alias to the
// same action as their keyword so new synonyms are one-line additions.
var aliases = map[string]Action{
	"1":              ActionAddMedication,
	"med":            ActionAddMedication,
	"add":            ActionAddMedication,
	"add medication": ActionAddMedication,
	"2":              ActionListMedications,
	"list":           ActionListMedications,
	"meds":           ActionListMedications,
	"my medications": ActionListMedications,
	"3":              ActionDeleteMedication,
	"delete":         ActionDeleteMedication,
	"remove":         ActionDeleteMedication,
	"4":              ActionCheckInteractions,
	"check":          ActionCheckInteractions,
	"interactions":   ActionCheckInteractions,
	"5":              ActionRecommend,
	"advice":         ActionRecommend,
	"recommend":      ActionRecommend,
	"6":              ActionLogHealth,
	"log":            ActionLogHealth,
	"health":         ActionLogHealth,
	"taken":          ActionDoseTaken,
	"took":           ActionDoseTaken,
	"0":              ActionHelp,
	"help":           ActionHelp,
	"menu":           ActionHelp,
	"reset":          ActionReset,
	"logout":         ActionReset,
}

const proxyPrefix = "for:"

// ParseProxy recognizes the caregiver proxy syntax "for:<target> <command>"
// and splits it into the target name and the inner command text.
func ParseProxy(input string) (target, inner string, ok bool) {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < len(proxyPrefix) || !strings.EqualFold(trimmed[:len(proxyPrefix)], proxyPrefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(trimmed[len(proxyPrefix):])
	if rest == "" {
		return "", "", false
	}
	parts := strings.SplitN(rest, " ", 2)
	target = parts[0]
	if len(parts) == 2 {
		inner = strings.TrimSpace(parts[1])
	}
	return target, inner, true
}

// Lookup resolves normalized input to an action.
func Lookup(input string) (Action, bool) {
	action, ok := aliases[strings.ToLower(strings.TrimSpace(input))]
	return action, ok
}

// Dispatch interprets one message from an operational (registered) user
// and returns the resulting directive. Input that is mid-flow is routed to
// the flow state machine; unmatched input in IDLE falls back to the main
// menu, never to an error. The session's state is already advanced on
// return.
func Dispatch(s *session.Session, input string) dialog.Directive {
	action, matched := Lookup(input)

	// Mid-flow, input belongs to the flow: a number answers the flow's
	// question, not the menu. Only the escape commands leave a flow, so
	// users are never trapped in one.
	if dialog.InFlow(s.CurrentState) && !(matched && (action == ActionHelp || action == ActionReset)) {
		return dialog.AdvanceFlow(s, input)
	}

	var d dialog.Directive
	switch action {
	case ActionAddMedication:
		d = dialog.Directive{TemplateID: reply.TplMedAskName, NextState: session.StateMedicationAddName}
	case ActionListMedications:
		d = dialog.Directive{TemplateID: reply.TplMedList, NextState: session.StateIdle, ListMedications: true}
	case ActionDeleteMedication:
		d = dialog.Directive{TemplateID: reply.TplMedDeletePick, NextState: session.StateMedicationDelete, ListMedications: true}
	case ActionCheckInteractions:
		d = dialog.Directive{NextState: session.StateIdle, CheckInteractions: true}
	case ActionRecommend:
		d = dialog.Directive{NextState: session.StateIdle, Recommend: true}
	case ActionLogHealth:
		d = dialog.Directive{TemplateID: reply.TplHealthAsk, NextState: session.StateHealthLogValue}
	case ActionDoseTaken:
		d = dialog.Directive{TemplateID: reply.TplDoseTaken, NextState: session.StateIdle, LogDose: true}
	case ActionHelp:
		d = dialog.Directive{TemplateID: reply.TplMainMenu, NextState: session.StateIdle}
	case ActionReset:
		d = dialog.Directive{TemplateID: reply.TplResetDone, NextState: session.StateIdle, ClearSession: true}
	default:
		// Unrecognized input outside any flow: show the menu.
		d = dialog.Directive{TemplateID: reply.TplMainMenu, NextState: session.StateIdle}
	}

	// Leaving a flow via a command drops its partial draft.
	if s.CurrentState != d.NextState || d.NextState == session.StateIdle {
		s.Medication = nil
	}
	s.CurrentState = d.NextState
	return d
}
