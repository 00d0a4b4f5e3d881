// Package dialog implements the conversation state machine.
package dialog

import (
	"github.com/sehatlabs/sehat/internal/reply"
	"github.com/sehatlabs/sehat/internal/session"
)

// Registration carries the fields collected by a completed registration
// sub-flow, ready to become a create-user intent.
type Registration struct {
	Name string
	Age  int
}

// Directive is the pure outcome of one dialogue step: what to say, where
// the session goes next, and which side effect the coordinator must run.
// Exactly one of the effect fields is set, or none for a plain reply.
type Directive struct {
	TemplateID reply.TemplateID
	Params     map[string]string

	// Text, when set, is delivered verbatim instead of rendering
	// TemplateID. Used for generator output.
	Text string

	NextState session.State

	// CompleteRegistration signals that the coordinator must issue a
	// create-user intent before replying.
	CompleteRegistration *Registration

	// SaveMedication persists a fully entered medication draft.
	SaveMedication *session.MedicationDraft

	// SaveReading persists a free-text health reading.
	SaveReading string

	// DeleteIndex, when non-nil, removes the 1-based entry from the
	// user's medication list.
	DeleteIndex *int

	// LogDose records that the user took a dose.
	LogDose bool

	// CheckInteractions asks the content generator for an interaction
	// check over the user's medication list.
	CheckInteractions bool

	// Recommend asks the content generator for health advice.
	Recommend bool

	// ListMedications renders the user's medication list.
	ListMedications bool

	// ClearSession drops the session after the reply is sent.
	ClearSession bool
}

func directive(tpl reply.TemplateID, next session.State) Directive {
	return Directive{TemplateID: tpl, NextState: next}
}

func directiveWithParams(tpl reply.TemplateID, next session.State, params map[string]string) Directive {
	return Directive{TemplateID: tpl, Params: params, NextState: next}
}
